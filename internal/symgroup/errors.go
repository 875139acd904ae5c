package symgroup

import "fmt"

// ScopeLimitError is returned when a stage is outside the range that can be
// enumerated exhaustively.
type ScopeLimitError struct {
	Stage    int
	MaxStage int
}

// Error implements the error interface.
func (e *ScopeLimitError) Error() string {
	if e.Stage < 0 {
		return fmt.Sprintf("stage %d is negative", e.Stage)
	}
	return fmt.Sprintf("stage %d exceeds the exhaustive enumeration limit of %d", e.Stage, e.MaxStage)
}
