// Package transition classifies the change between two consecutive rows:
// where every position's occupant moved, where every bell moved, how far and
// in which direction, and which neighbouring positions swapped.
package transition

import (
	"fmt"
	"strconv"

	"github.com/dbsmedya/pealscope/internal/histogram"
	"github.com/dbsmedya/pealscope/internal/perm"
)

// Direction of a bell's movement. Moving to a lower position index is "up"
// (towards the lead).
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Stay Direction = "stay"
)

// Movement describes one bell's change of position.
type Movement struct {
	Bell      int       `json:"bell"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Distance  int       `json:"distance"`
	Direction Direction `json:"direction"`
}

// SwapPair is an unordered pair of positions that exchanged bells, stored as
// (min, max).
type SwapPair [2]int

// Label renders the pair as "i-j".
func (s SwapPair) Label() string {
	return strconv.Itoa(s[0]) + "-" + strconv.Itoa(s[1])
}

// Transition is the classified change between a before and an after row.
type Transition struct {
	PositionPermutation perm.Permutation   `json:"positionPermutation"`
	BellPermutation     perm.Permutation   `json:"bellPermutation"`
	Cycles              [][]int            `json:"cycles"`
	CycleSignature      string             `json:"cycleSignature"`
	Parity              perm.Parity        `json:"parity"`
	Sign                int                `json:"sign"`
	AdjacentOnly        bool               `json:"adjacentOnly"`
	SwapPairs           []SwapPair         `json:"swapPairs"`
	Movements           []Movement         `json:"movements"`
	MovementCounts      *histogram.Counter `json:"movementCounts"`
	DistanceCounts      *histogram.Counter `json:"distanceCounts"`
}

// NewMovementCounter returns a counter seeded with every direction.
func NewMovementCounter() *histogram.Counter {
	return histogram.NewCounter(string(Up), string(Down), string(Stay))
}

// Classify computes the Transition from before to after.
// Both rows must hold the same bells; see TransitionMismatchError.
func Classify(before, after perm.Permutation) (*Transition, error) {
	stage := len(before)
	if len(after) != stage {
		return nil, &TransitionMismatchError{
			Index:  -1,
			Before: perm.Notation(before),
			After:  perm.Notation(after),
			Reason: fmt.Sprintf("row lengths differ (%d vs %d)", stage, len(after)),
		}
	}

	// Index the after row once instead of searching it for every bell.
	positionOf := make(map[int]int, stage)
	for pos, bell := range after {
		if _, dup := positionOf[bell]; dup {
			return nil, &TransitionMismatchError{
				Index:  -1,
				Before: perm.Notation(before),
				After:  perm.Notation(after),
				Reason: fmt.Sprintf("bell %d appears more than once in the after row", bell),
			}
		}
		positionOf[bell] = pos
	}

	t := &Transition{
		PositionPermutation: make(perm.Permutation, stage),
		BellPermutation:     make(perm.Permutation, stage),
		AdjacentOnly:        true,
		SwapPairs:           []SwapPair{},
		Movements:           make([]Movement, 0, stage),
		MovementCounts:      NewMovementCounter(),
		DistanceCounts:      histogram.NewCounter(),
	}

	seen := make([]bool, stage)
	for pos, bell := range before {
		if bell < 0 || bell >= stage {
			return nil, &perm.MalformedRowError{
				Index:  -1,
				Row:    perm.Notation(before),
				Stage:  stage,
				Reason: fmt.Sprintf("bell %d at position %d is out of range 0..%d", bell, pos, stage-1),
			}
		}
		if seen[bell] {
			return nil, &TransitionMismatchError{
				Index:  -1,
				Before: perm.Notation(before),
				After:  perm.Notation(after),
				Reason: fmt.Sprintf("bell %d appears more than once in the before row", bell),
			}
		}
		seen[bell] = true

		target, ok := positionOf[bell]
		if !ok {
			return nil, &TransitionMismatchError{
				Index:  -1,
				Before: perm.Notation(before),
				After:  perm.Notation(after),
				Reason: fmt.Sprintf("bell %d is missing from the after row", bell),
			}
		}

		t.PositionPermutation[pos] = target
		t.BellPermutation[bell] = target

		distance := target - pos
		if distance > 1 || distance < -1 {
			t.AdjacentOnly = false
		}
		direction := directionOf(distance)

		t.MovementCounts.Inc(string(direction))
		t.DistanceCounts.Inc(strconv.Itoa(distance))
		t.Movements = append(t.Movements, Movement{
			Bell:      bell,
			From:      pos,
			To:        target,
			Distance:  distance,
			Direction: direction,
		})
	}

	t.SwapPairs = SwapPairs(t.PositionPermutation)

	desc := perm.Describe(t.PositionPermutation)
	t.Cycles = desc.Cycles
	t.CycleSignature = desc.CycleSignature
	t.Parity = desc.Parity
	t.Sign = desc.Sign

	return t, nil
}

// SwapPairs returns the position pairs (i, j) with pos[i] == j and
// pos[j] == i, i != j. Each index belongs to at most one pair and pairs are
// reported in scan order of their first index.
func SwapPairs(pos perm.Permutation) []SwapPair {
	pairs := []SwapPair{}
	used := make([]bool, len(pos))

	for idx, target := range pos {
		if used[idx] || target == idx {
			continue
		}
		if target < 0 || target >= len(pos) || used[target] {
			continue
		}
		if pos[target] != idx {
			continue
		}
		pairs = append(pairs, SwapPair{min(idx, target), max(idx, target)})
		used[idx] = true
		used[target] = true
	}

	return pairs
}

func directionOf(distance int) Direction {
	switch {
	case distance < 0:
		return Up
	case distance > 0:
		return Down
	default:
		return Stay
	}
}
