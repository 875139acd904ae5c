// Package export writes the result of an analysis run as a single JSON
// document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dbsmedya/pealscope/internal/family"
	"github.com/dbsmedya/pealscope/internal/pipeline"
	"github.com/dbsmedya/pealscope/internal/symgroup"
)

// ErrOutputExists is returned when the destination exists and overwriting
// was not requested.
var ErrOutputExists = errors.New("output file already exists")

// Envelope is the top-level exported document.
type Envelope struct {
	GeneratedAt           time.Time            `json:"generatedAt"`
	RunID                 string               `json:"runId"`
	Source                string               `json:"source"`
	ChangeRingingLibrary  []pipeline.Structure `json:"changeRingingLibrary"`
	PermutationFamilies   []family.Family      `json:"permutationFamilies"`
	SymmetricGroupCatalog []*symgroup.Entry    `json:"symmetricGroupCatalog"`
	SkippedStages         []int                `json:"skippedStages"`
	Rejected              []pipeline.Rejection `json:"rejected"`
}

// Options controls how an envelope is written.
type Options struct {
	Indent    bool
	Overwrite bool
}

// NewEnvelope wraps a run result. Empty sections encode as [] rather than null.
func NewEnvelope(res *pipeline.Result, source string, generatedAt time.Time) *Envelope {
	env := &Envelope{
		GeneratedAt:           generatedAt.UTC().Truncate(time.Second),
		RunID:                 res.RunID,
		Source:                source,
		ChangeRingingLibrary:  res.Structures,
		PermutationFamilies:   res.Families,
		SymmetricGroupCatalog: res.Catalog,
		SkippedStages:         res.SkippedStages,
		Rejected:              res.Rejected,
	}
	if env.ChangeRingingLibrary == nil {
		env.ChangeRingingLibrary = []pipeline.Structure{}
	}
	if env.PermutationFamilies == nil {
		env.PermutationFamilies = []family.Family{}
	}
	if env.SymmetricGroupCatalog == nil {
		env.SymmetricGroupCatalog = []*symgroup.Entry{}
	}
	if env.SkippedStages == nil {
		env.SkippedStages = []int{}
	}
	if env.Rejected == nil {
		env.Rejected = []pipeline.Rejection{}
	}
	return env
}

// Encode writes env to w.
func Encode(w io.Writer, env *Envelope, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// WriteFile writes env to path through a temporary file in the same
// directory, so readers never observe a partial document.
func WriteFile(path string, env *Envelope, opts Options) error {
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --overwrite to replace it)", ErrOutputExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check output path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pealscope-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Encode(tmp, env, opts.Indent); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
