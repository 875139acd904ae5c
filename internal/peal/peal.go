// Package peal reads plain-text peal definition files.
//
// A peal file holds one row per line in bell notation ("0123"). Lines starting
// with '#' carry metadata in "key: value" form or free-form comments; blank
// lines are ignored:
//
//	# title: Plain Changes on 4 Bells
//	# stage: 4
//	# comment: Classic 4-bell peal (1 hunt bell)
//	0123
//	1023
//	...
package peal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dbsmedya/pealscope/internal/perm"
)

// Metadata is the information carried by '#' comment lines. It encodes to
// JSON as the key: value pairs written in the file, in file order; a repeated
// key keeps its first position and its last value.
type Metadata struct {
	Title        string
	Stage        int // declared stage, 0 when absent
	DeclaredRows int // declared row count, 0 when absent
	Comment      string
	Tags         []string

	fields *orderedmap.OrderedMap[string, string]
}

// Field returns the last value written for key.
func (m Metadata) Field(key string) (string, bool) {
	if m.fields == nil {
		return "", false
	}
	return m.fields.Get(key)
}

// Keys returns the written keys in order of first appearance.
func (m Metadata) Keys() []string {
	if m.fields == nil {
		return nil
	}
	return m.fields.Keys()
}

// MarshalJSON encodes the written pairs as a flat object. Numeric stage and
// rows values are encoded as numbers.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		value, _ := m.fields.Get(key)
		if key == "stage" || key == "rows" {
			if n, err := strconv.Atoi(value); err == nil {
				buf.WriteString(strconv.Itoa(n))
				continue
			}
		}
		v, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Peal is a parsed and validated peal definition.
type Peal struct {
	ID              string             `json:"id"`
	Source          string             `json:"sourceFile"`
	Metadata        Metadata           `json:"metadata"`
	Stage           int                `json:"stage"`
	Rows            []string           `json:"rows"`
	Permutations    []perm.Permutation `json:"-"`
	HuntBells       *int               `json:"huntBells"`
	LengthHistogram map[int]int        `json:"lengthHistogram"`
	Warnings        []string           `json:"warnings,omitempty"`
}

var huntPattern = regexp.MustCompile(`(\d+)\s+hunt`)

// ParseFile opens and parses the peal file at path.
func ParseFile(path string) (*Peal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a peal definition from r. source names the input in errors and
// determines the default ID and title.
func Parse(r io.Reader, source string) (*Peal, error) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	p := &Peal{
		ID:     strings.ReplaceAll(stem, "-", "_"),
		Source: source,
		Metadata: Metadata{
			Title:  defaultTitle(stem),
			fields: orderedmap.NewOrderedMap[string, string](),
		},
		LengthHistogram: make(map[int]int),
	}

	var rowLines []int
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			p.parseComment(strings.TrimSpace(strings.TrimLeft(line, "#")), lineNo)
			continue
		}
		p.Rows = append(p.Rows, line)
		rowLines = append(rowLines, lineNo)
		p.LengthHistogram[len(line)]++
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	if len(p.Rows) == 0 {
		return nil, &ParseError{Source: source, Err: ErrNoRows}
	}

	p.Stage = len(p.Rows[0])
	if p.Metadata.Stage != 0 && p.Metadata.Stage != p.Stage {
		return nil, &ParseError{Source: source, Line: rowLines[0],
			Err: fmt.Errorf("%w: metadata declares %d, row length is %d", ErrStageMismatch, p.Metadata.Stage, p.Stage)}
	}

	p.Permutations = make([]perm.Permutation, len(p.Rows))
	for i, row := range p.Rows {
		if len(row) != p.Stage {
			return nil, &ParseError{Source: source, Line: rowLines[i],
				Err: &perm.MalformedRowError{Index: i, Row: row, Stage: p.Stage,
					Reason: fmt.Sprintf("row length %d does not match stage %d", len(row), p.Stage)}}
		}
		permutation, err := perm.ParseNotation(row)
		if err != nil {
			if merr, ok := err.(*perm.MalformedRowError); ok {
				err = merr.AtIndex(i)
			}
			return nil, &ParseError{Source: source, Line: rowLines[i], Err: err}
		}
		p.Permutations[i] = permutation
	}

	if p.Metadata.DeclaredRows != 0 && p.Metadata.DeclaredRows != len(p.Rows) {
		p.Warnings = append(p.Warnings, fmt.Sprintf("metadata declares %d rows, found %d",
			p.Metadata.DeclaredRows, len(p.Rows)))
	}

	// Only the comment: value names hunt bells; free-form lines do not
	if comment, ok := p.Metadata.Field("comment"); ok {
		p.HuntBells = extractHuntBells(comment)
	}
	return p, nil
}

func (p *Peal) parseComment(payload string, lineNo int) {
	if payload == "" {
		return
	}
	key, value, ok := strings.Cut(payload, ":")
	if !ok {
		p.appendComment(payload)
		return
	}

	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	p.Metadata.fields.Set(key, value)

	switch key {
	case "title":
		p.Metadata.Title = value
	case "stage":
		n, err := strconv.Atoi(value)
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: ignoring non-numeric stage %q", lineNo, value))
			return
		}
		p.Metadata.Stage = n
	case "rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: ignoring non-numeric rows %q", lineNo, value))
			return
		}
		p.Metadata.DeclaredRows = n
	case "comment", "note":
		p.appendComment(value)
	case "tags", "tag":
		for _, tag := range strings.Split(value, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" && !containsString(p.Metadata.Tags, tag) {
				p.Metadata.Tags = append(p.Metadata.Tags, tag)
			}
		}
	}
}

func (p *Peal) appendComment(text string) {
	if p.Metadata.Comment == "" {
		p.Metadata.Comment = text
		return
	}
	p.Metadata.Comment += "\n" + text
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func defaultTitle(stem string) string {
	words := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return cases.Title(language.English).String(words)
}

func extractHuntBells(comment string) *int {
	m := huntPattern.FindStringSubmatch(comment)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// Discover returns the regular files in dir matching pattern, sorted by path.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.txt"
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %q is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}
