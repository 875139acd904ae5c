// Package sequence analyses an ordered list of rows: it describes every row,
// classifies every transition between consecutive rows and aggregates the
// per-sequence summary in a single pass.
package sequence

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/pealscope/internal/histogram"
	"github.com/dbsmedya/pealscope/internal/perm"
	"github.com/dbsmedya/pealscope/internal/transition"
)

// RowDetail describes one row of a sequence.
type RowDetail struct {
	Index    int    `json:"index"`
	Notation string `json:"notation"`
	perm.Description
	InversionCount int  `json:"inversionCount"`
	IsIdentity     bool `json:"isIdentity"`
}

// TransitionDetail is a classified transition tagged with its position in
// the sequence.
type TransitionDetail struct {
	Index int    `json:"index"`
	From  string `json:"from"`
	To    string `json:"to"`
	*transition.Transition
}

// UniquePermutation is one distinct transition position permutation and the
// number of times it occurred in the sequence.
type UniquePermutation struct {
	perm.Description
	SwapPairs    []transition.SwapPair `json:"swapPairs"`
	AdjacentOnly bool                  `json:"adjacentOnly"`
	Count        int                   `json:"count"`
}

// Summary holds the sequence-wide aggregates.
type Summary struct {
	RowParityCounts            *histogram.Counter  `json:"rowParityCounts"`
	TransitionParityCounts     *histogram.Counter  `json:"transitionParityCounts"`
	AdjacentOnly               bool                `json:"adjacentOnly"`
	UniquePositionPermutations []UniquePermutation `json:"uniquePositionPermutations"`
	MovementHistogram          *histogram.Counter  `json:"movementHistogram"`
	DistanceHistogram          *histogram.Counter  `json:"distanceHistogram"`
	SwapPairHistogram          *histogram.Counter  `json:"swapPairHistogram"`
}

// Analysis is the complete result for one sequence.
type Analysis struct {
	ID          string             `json:"id"`
	Stage       int                `json:"stage"`
	Rows        []RowDetail        `json:"rowsDetail"`
	Transitions []TransitionDetail `json:"transitions"`
	Summary     Summary            `json:"summary"`
}

// ErrEmptySequence is returned for a sequence without rows.
var ErrEmptySequence = errors.New("sequence has no rows")

// NewParityCounter returns a counter seeded with both parities.
func NewParityCounter() *histogram.Counter {
	return histogram.NewCounter(string(perm.Even), string(perm.Odd))
}

// Analyze validates and analyses rows. The stage is taken from the first row
// and every other row must match it. Any malformed row or mismatched
// transition fails the whole sequence; no partial analysis is returned.
func Analyze(id string, rows []perm.Permutation) (*Analysis, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sequence %q: %w", id, ErrEmptySequence)
	}

	stage := len(rows[0])
	for i, row := range rows {
		if err := perm.ValidateStage(row, stage); err != nil {
			var merr *perm.MalformedRowError
			if errors.As(err, &merr) {
				return nil, fmt.Errorf("sequence %q: %w", id, merr.AtIndex(i))
			}
			return nil, fmt.Errorf("sequence %q: %w", id, err)
		}
	}

	a := &Analysis{
		ID:          id,
		Stage:       stage,
		Rows:        make([]RowDetail, 0, len(rows)),
		Transitions: make([]TransitionDetail, 0, max(len(rows)-1, 0)),
		Summary: Summary{
			RowParityCounts:            NewParityCounter(),
			TransitionParityCounts:     NewParityCounter(),
			AdjacentOnly:               true,
			UniquePositionPermutations: []UniquePermutation{},
			MovementHistogram:          transition.NewMovementCounter(),
			DistanceHistogram:          histogram.NewCounter(),
			SwapPairHistogram:          histogram.NewCounter(),
		},
	}

	for i, row := range rows {
		desc := perm.Describe(row)
		a.Summary.RowParityCounts.Inc(string(desc.Parity))
		a.Rows = append(a.Rows, RowDetail{
			Index:          i,
			Notation:       perm.Notation(row),
			Description:    desc,
			InversionCount: perm.InversionCount(row),
			IsIdentity:     perm.IsIdentity(row),
		})
	}

	unique := make(map[string]int) // permutation key -> index into UniquePositionPermutations
	for i := 0; i+1 < len(rows); i++ {
		t, err := transition.Classify(rows[i], rows[i+1])
		if err != nil {
			var terr *transition.TransitionMismatchError
			if errors.As(err, &terr) {
				terr.Index = i
			}
			return nil, fmt.Errorf("sequence %q: %w", id, err)
		}

		a.Transitions = append(a.Transitions, TransitionDetail{
			Index:      i,
			From:       a.Rows[i].Notation,
			To:         a.Rows[i+1].Notation,
			Transition: t,
		})

		s := &a.Summary
		s.TransitionParityCounts.Inc(string(t.Parity))
		s.AdjacentOnly = s.AdjacentOnly && t.AdjacentOnly
		s.MovementHistogram.Merge(t.MovementCounts)
		s.DistanceHistogram.Merge(t.DistanceCounts)
		for _, pair := range t.SwapPairs {
			s.SwapPairHistogram.Inc(pair.Label())
		}

		key := t.PositionPermutation.Key()
		idx, seen := unique[key]
		if !seen {
			idx = len(s.UniquePositionPermutations)
			unique[key] = idx
			s.UniquePositionPermutations = append(s.UniquePositionPermutations, UniquePermutation{
				Description: perm.Description{
					Permutation:    t.PositionPermutation.Clone(),
					Cycles:         t.Cycles,
					CycleSignature: t.CycleSignature,
					Parity:         t.Parity,
					Sign:           t.Sign,
				},
				SwapPairs:    t.SwapPairs,
				AdjacentOnly: t.AdjacentOnly,
			})
		}
		s.UniquePositionPermutations[idx].Count++
	}

	return a, nil
}

// TransitionCount returns the number of transitions in the sequence.
func (a *Analysis) TransitionCount() int {
	return len(a.Transitions)
}
