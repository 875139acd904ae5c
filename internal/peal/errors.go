package peal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows is returned for a file without any row lines.
	ErrNoRows = errors.New("no rows found")
	// ErrStageMismatch is returned when the declared stage differs from the row length.
	ErrStageMismatch = errors.New("stage mismatch")
)

// ParseError wraps a failure to read or validate a peal file.
type ParseError struct {
	Source string
	Line   int // 1-based line number, 0 when not line specific
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
