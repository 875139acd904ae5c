package transition

import "fmt"

// TransitionMismatchError is returned when two consecutive rows do not hold
// the same set of bells.
type TransitionMismatchError struct {
	Index  int // Transition index within its sequence, -1 when unknown
	Before string
	After  string
	Reason string
}

// Error implements the error interface.
func (e *TransitionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transition %s -> %s: %s", e.Before, e.After, e.Reason)
	}
	return fmt.Sprintf("transition %d %s -> %s: %s", e.Index, e.Before, e.After, e.Reason)
}
