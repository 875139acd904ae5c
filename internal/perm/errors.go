package perm

import "fmt"

// MalformedRowError is returned when a row is not a valid permutation of
// 0..stage-1 or does not belong to the stage of its sequence.
type MalformedRowError struct {
	Index  int    // Row index within its sequence, -1 when unknown
	Row    string // Row notation as received
	Stage  int    // Expected stage
	Reason string
}

// Error implements the error interface.
func (e *MalformedRowError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed row %d %q: %s", e.Index, e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed row %q: %s", e.Row, e.Reason)
}

// AtIndex returns a copy of the error tagged with a row index.
func (e *MalformedRowError) AtIndex(index int) *MalformedRowError {
	out := *e
	out.Index = index
	return &out
}
