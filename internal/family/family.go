// Package family merges the unique transition permutations of many sequences
// into permutation families. Two structurally identical permutations always
// land in the same family, whichever sequence introduced them first.
package family

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dbsmedya/pealscope/internal/perm"
	"github.com/dbsmedya/pealscope/internal/sequence"
	"github.com/dbsmedya/pealscope/internal/transition"
)

// IDPrefix prefixes every family ID.
const IDPrefix = "perm_"

// Provenance records how often a family occurred in one sequence.
type Provenance struct {
	ID    string `json:"id"`
	Stage int    `json:"stage"`
	Count int    `json:"count"`
}

// Family is a deduplicated transition position permutation with its
// cross-sequence statistics.
type Family struct {
	ID                  string                `json:"id"`
	PositionPermutation perm.Permutation      `json:"positionPermutation"`
	Cycles              [][]int               `json:"cycles"`
	CycleSignature      string                `json:"cycleSignature"`
	Parity              perm.Parity           `json:"parity"`
	Sign                int                   `json:"sign"`
	SwapPairs           []transition.SwapPair `json:"swapPairs"`
	AdjacentOnly        bool                  `json:"adjacentOnly"`
	OccurrenceCount     int                   `json:"occurrenceCount"`
	Stages              []int                 `json:"stages"`
	Structures          []Provenance          `json:"structures"`

	stageSet map[int]struct{}
}

// Contribution is the deduplicated transition list of one sequence.
type Contribution struct {
	SequenceID string
	Stage      int
	Entries    []sequence.UniquePermutation
}

// ContributionFrom builds a Contribution from a sequence analysis.
func ContributionFrom(a *sequence.Analysis) Contribution {
	return Contribution{
		SequenceID: a.ID,
		Stage:      a.Stage,
		Entries:    a.Summary.UniquePositionPermutations,
	}
}

var (
	// ErrMissingSequenceID is returned for a contribution without an ID.
	ErrMissingSequenceID = errors.New("contribution has no sequence id")
	// ErrDuplicateSequence is returned when a sequence contributes twice.
	ErrDuplicateSequence = errors.New("sequence already contributed")
)

// Aggregator accumulates families. It is not safe for concurrent use;
// aggregate per worker and combine with Merge.
type Aggregator struct {
	families  map[string]*Family // permutation key -> family
	sequences map[string]struct{}
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		families:  make(map[string]*Family),
		sequences: make(map[string]struct{}),
	}
}

// FamilyID derives the deterministic family ID of a position permutation.
func FamilyID(p perm.Permutation) string {
	return IDPrefix + p.Digits()
}

// Add merges one sequence's contribution. The contribution is validated in
// full first; a rejected contribution leaves the aggregator unchanged.
func (a *Aggregator) Add(c Contribution) error {
	if err := a.validate(c); err != nil {
		return err
	}

	a.sequences[c.SequenceID] = struct{}{}
	for _, entry := range c.Entries {
		f := a.familyFor(entry)
		f.OccurrenceCount += entry.Count
		f.stageSet[c.Stage] = struct{}{}
		f.Structures = append(f.Structures, Provenance{
			ID:    c.SequenceID,
			Stage: c.Stage,
			Count: entry.Count,
		})
	}
	return nil
}

func (a *Aggregator) validate(c Contribution) error {
	if c.SequenceID == "" {
		return ErrMissingSequenceID
	}
	if _, dup := a.sequences[c.SequenceID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateSequence, c.SequenceID)
	}
	seen := make(map[string]int, len(c.Entries))
	for i, entry := range c.Entries {
		if err := perm.ValidateStage(entry.Permutation, c.Stage); err != nil {
			return fmt.Errorf("sequence %q entry %d: %w", c.SequenceID, i, err)
		}
		key := entry.Permutation.Key()
		if first, dup := seen[key]; dup {
			return fmt.Errorf("sequence %q entry %d: permutation %s already listed at entry %d",
				c.SequenceID, i, key, first)
		}
		seen[key] = i
		if entry.Count <= 0 {
			return fmt.Errorf("sequence %q entry %d: occurrence count %d must be positive",
				c.SequenceID, i, entry.Count)
		}
	}
	return nil
}

func (a *Aggregator) familyFor(entry sequence.UniquePermutation) *Family {
	key := entry.Permutation.Key()
	if f, ok := a.families[key]; ok {
		return f
	}

	// Derive the description from the permutation itself so the family does
	// not depend on which contribution arrived first.
	desc := perm.Describe(entry.Permutation)
	f := &Family{
		ID:                  FamilyID(desc.Permutation),
		PositionPermutation: desc.Permutation,
		Cycles:              desc.Cycles,
		CycleSignature:      desc.CycleSignature,
		Parity:              desc.Parity,
		Sign:                desc.Sign,
		SwapPairs:           transition.SwapPairs(desc.Permutation),
		AdjacentOnly:        adjacentOnly(desc.Permutation),
		stageSet:            make(map[int]struct{}),
	}
	a.families[key] = f
	return f
}

// Merge folds other into a. Merging is commutative and associative: counts
// are summed, stage sets united and provenance concatenated.
func (a *Aggregator) Merge(other *Aggregator) error {
	if other == nil {
		return nil
	}
	for id := range other.sequences {
		if _, dup := a.sequences[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateSequence, id)
		}
	}

	for id := range other.sequences {
		a.sequences[id] = struct{}{}
	}
	for key, of := range other.families {
		f, ok := a.families[key]
		if !ok {
			f = &Family{
				ID:                  of.ID,
				PositionPermutation: of.PositionPermutation.Clone(),
				Cycles:              of.Cycles,
				CycleSignature:      of.CycleSignature,
				Parity:              of.Parity,
				Sign:                of.Sign,
				SwapPairs:           of.SwapPairs,
				AdjacentOnly:        of.AdjacentOnly,
				stageSet:            make(map[int]struct{}),
			}
			a.families[key] = f
		}
		f.OccurrenceCount += of.OccurrenceCount
		for stage := range of.stageSet {
			f.stageSet[stage] = struct{}{}
		}
		f.Structures = append(f.Structures, of.Structures...)
	}
	return nil
}

// Len returns the number of distinct families.
func (a *Aggregator) Len() int {
	return len(a.families)
}

// SequenceCount returns the number of accepted contributions.
func (a *Aggregator) SequenceCount() int {
	return len(a.sequences)
}

// Families returns a snapshot of all families sorted by cycle signature and
// then ID. Stages are sorted ascending and provenance by sequence ID, so the
// result does not depend on the order contributions were added.
func (a *Aggregator) Families() []Family {
	out := make([]Family, 0, len(a.families))
	for _, f := range a.families {
		snapshot := *f
		snapshot.stageSet = nil

		snapshot.Stages = make([]int, 0, len(f.stageSet))
		for stage := range f.stageSet {
			snapshot.Stages = append(snapshot.Stages, stage)
		}
		sort.Ints(snapshot.Stages)

		snapshot.Structures = append([]Provenance(nil), f.Structures...)
		sort.Slice(snapshot.Structures, func(i, j int) bool {
			si, sj := snapshot.Structures[i], snapshot.Structures[j]
			if si.ID != sj.ID {
				return si.ID < sj.ID
			}
			return si.Stage < sj.Stage
		})

		out = append(out, snapshot)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CycleSignature != out[j].CycleSignature {
			return out[i].CycleSignature < out[j].CycleSignature
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		// Digits-based IDs can collide above stage 10.
		return out[i].PositionPermutation.Key() < out[j].PositionPermutation.Key()
	})
	return out
}

// TotalOccurrences sums the occurrence counts of every family.
func (a *Aggregator) TotalOccurrences() int {
	total := 0
	for _, f := range a.families {
		total += f.OccurrenceCount
	}
	return total
}

func adjacentOnly(p perm.Permutation) bool {
	for pos, target := range p {
		if d := target - pos; d > 1 || d < -1 {
			return false
		}
	}
	return true
}

// Aggregate is a convenience that adds every analysis in order and returns
// the sorted families.
func Aggregate(analyses []*sequence.Analysis) ([]Family, error) {
	agg := NewAggregator()
	for _, a := range analyses {
		if err := agg.Add(ContributionFrom(a)); err != nil {
			return nil, err
		}
	}
	return agg.Families(), nil
}
