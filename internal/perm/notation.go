package perm

import (
	"fmt"
	"strings"
)

// bellSymbols maps bell indices to their notation character. Stages above 10
// continue with letters.
const bellSymbols = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxNotationStage is the largest stage expressible in row notation.
const MaxNotationStage = len(bellSymbols)

// ParseNotation converts a row such as "1203" into a Permutation and
// validates it.
func ParseNotation(s string) (Permutation, error) {
	if s == "" {
		return nil, &MalformedRowError{Index: -1, Row: s, Reason: "empty row"}
	}
	if len(s) > MaxNotationStage {
		return nil, &MalformedRowError{Index: -1, Row: s, Stage: len(s),
			Reason: fmt.Sprintf("stage %d exceeds notation limit %d", len(s), MaxNotationStage)}
	}

	p := make(Permutation, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		idx := strings.IndexRune(bellSymbols, r)
		if idx < 0 {
			return nil, &MalformedRowError{Index: -1, Row: s, Stage: len(s),
				Reason: fmt.Sprintf("invalid bell symbol %q", r)}
		}
		p = append(p, idx)
	}

	if err := Validate(p); err != nil {
		merr := err.(*MalformedRowError)
		merr.Row = s
		return nil, merr
	}
	return p, nil
}

// Notation renders p back into row notation. Values outside the notation
// range are rendered as '?'.
func Notation(p Permutation) string {
	var sb strings.Builder
	sb.Grow(len(p))
	for _, v := range p {
		if v < 0 || v >= MaxNotationStage {
			sb.WriteByte('?')
			continue
		}
		sb.WriteByte(bellSymbols[v])
	}
	return sb.String()
}

// Validate checks that p contains every value of 0..len(p)-1 exactly once.
func Validate(p Permutation) error {
	seen := make([]bool, len(p))
	for pos, v := range p {
		if v < 0 || v >= len(p) {
			return &MalformedRowError{Index: -1, Row: Notation(p), Stage: len(p),
				Reason: fmt.Sprintf("bell %d at position %d is out of range 0..%d", v, pos, len(p)-1)}
		}
		if seen[v] {
			return &MalformedRowError{Index: -1, Row: Notation(p), Stage: len(p),
				Reason: fmt.Sprintf("bell %d appears more than once", v)}
		}
		seen[v] = true
	}
	return nil
}

// ValidateStage checks p like Validate and additionally requires it to have
// exactly stage elements.
func ValidateStage(p Permutation, stage int) error {
	if len(p) != stage {
		return &MalformedRowError{Index: -1, Row: Notation(p), Stage: stage,
			Reason: fmt.Sprintf("row length %d does not match stage %d", len(p), stage)}
	}
	return Validate(p)
}
