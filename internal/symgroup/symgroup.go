// Package symgroup builds reference catalogs of the symmetric group S_n by
// exhaustive enumeration: cycle-type and parity distributions, a bounded set
// of sample elements per cycle type and a fixed set of canonical generators.
//
// Enumeration visits all n! elements, so callers must keep n small. Build
// refuses stages above Options.MaxStage with a ScopeLimitError before doing
// any work.
package symgroup

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/dbsmedya/pealscope/internal/histogram"
	"github.com/dbsmedya/pealscope/internal/perm"
)

const (
	// DefaultMaxStage keeps enumeration at 8! = 40320 elements.
	DefaultMaxStage = 8
	// DefaultSamplesPerCycle is the number of examples kept per cycle type.
	DefaultSamplesPerCycle = 3
)

// Options bounds a catalog build. Zero values select the defaults.
type Options struct {
	MaxStage        int
	SamplesPerCycle int
}

func (o Options) withDefaults() Options {
	if o.MaxStage <= 0 {
		o.MaxStage = DefaultMaxStage
	}
	if o.SamplesPerCycle <= 0 {
		o.SamplesPerCycle = DefaultSamplesPerCycle
	}
	return o
}

// Sample is one example element of a cycle type.
type Sample struct {
	Permutation perm.Permutation `json:"permutation"`
	Cycles      [][]int          `json:"cycles"`
	Parity      perm.Parity      `json:"parity"`
	Sign        int              `json:"sign"`
}

// CycleTypeSamples groups the samples of one cycle signature.
type CycleTypeSamples struct {
	CycleSignature string   `json:"cycleSignature"`
	Count          int      `json:"count"`
	Samples        []Sample `json:"samples"`
}

// Generator is a labelled canonical element of S_n.
type Generator struct {
	Label   string `json:"label"`
	Summary string `json:"description"`
	perm.Description
}

// Entry is the catalog of one stage. Entries returned from a Cache are
// shared and must be treated as read-only.
type Entry struct {
	Stage               int                `json:"stage"`
	Label               string             `json:"label"`
	Order               int                `json:"order"`
	ParityCounts        *histogram.Counter `json:"parityCounts"`
	CycleTypeCounts     *histogram.Counter `json:"cycleTypeCounts"`
	CycleTypeSamples    []CycleTypeSamples `json:"cycleTypeSamples"`
	CanonicalGenerators []Generator        `json:"canonicalGenerators"`
}

// Build enumerates S_stage and returns its catalog.
func Build(stage int, opts Options) (*Entry, error) {
	opts = opts.withDefaults()
	if stage < 0 || stage > opts.MaxStage {
		return nil, &ScopeLimitError{Stage: stage, MaxStage: opts.MaxStage}
	}

	entry := &Entry{
		Stage:           stage,
		Label:           fmt.Sprintf("S_%d", stage),
		Order:           combin.NumPermutations(stage, stage),
		ParityCounts:    histogram.NewCounter(string(perm.Even), string(perm.Odd)),
		CycleTypeCounts: histogram.NewCounter(),
	}

	samples := make(map[string][]Sample)
	Enumerate(stage, func(p perm.Permutation) {
		cycles := perm.Cycles(p)
		parity := perm.ParityOf(p)
		signature := perm.CycleSignature(cycles)

		entry.ParityCounts.Inc(string(parity))
		entry.CycleTypeCounts.Inc(signature)
		if len(samples[signature]) < opts.SamplesPerCycle {
			samples[signature] = append(samples[signature], Sample{
				Permutation: p.Clone(),
				Cycles:      cycles,
				Parity:      parity,
				Sign:        perm.Sign(parity),
			})
		}
	})

	signatures := entry.CycleTypeCounts.Keys()
	sort.Strings(signatures)
	entry.CycleTypeSamples = make([]CycleTypeSamples, 0, len(signatures))
	for _, sig := range signatures {
		entry.CycleTypeSamples = append(entry.CycleTypeSamples, CycleTypeSamples{
			CycleSignature: sig,
			Count:          entry.CycleTypeCounts.Get(sig),
			Samples:        samples[sig],
		})
	}

	entry.CanonicalGenerators = Generators(stage)
	return entry, nil
}

// BuildAll builds catalogs for the distinct stages in ascending order.
// It stops at the first stage that is out of scope.
func BuildAll(stages []int, opts Options) ([]*Entry, error) {
	distinct := DistinctStages(stages)
	out := make([]*Entry, 0, len(distinct))
	for _, stage := range distinct {
		e, err := Build(stage, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DistinctStages returns the sorted distinct values of stages.
func DistinctStages(stages []int) []int {
	seen := make(map[int]struct{}, len(stages))
	out := make([]int, 0, len(stages))
	for _, s := range stages {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Generators returns the canonical generator elements of S_n: the identity,
// every adjacent transposition, the long cycle (n > 2) and the reversal
// (n > 1).
func Generators(n int) []Generator {
	gens := []Generator{{
		Label:       "identity",
		Summary:     "Neutral element",
		Description: perm.Describe(perm.Identity(n)),
	}}

	for i := 0; i+1 < n; i++ {
		p := perm.Identity(n)
		p[i], p[i+1] = p[i+1], p[i]
		gens = append(gens, Generator{
			Label:       fmt.Sprintf("swap_%d_%d", i, i+1),
			Summary:     "Adjacent transposition",
			Description: perm.Describe(p),
		})
	}

	if n > 2 {
		p := make(perm.Permutation, n)
		for i := range p {
			p[i] = (i + 1) % n
		}
		gens = append(gens, Generator{
			Label:       "long_cycle",
			Summary:     "Cyclic shift (0→1→…→0)",
			Description: perm.Describe(p),
		})
	}

	if n > 1 {
		p := make(perm.Permutation, n)
		for i := range p {
			p[i] = n - 1 - i
		}
		gens = append(gens, Generator{
			Label:       "reverse",
			Summary:     "Order reversal",
			Description: perm.Describe(p),
		})
	}

	return gens
}

// Enumerate calls visit with every permutation of 0..n-1 in lexicographic
// order. The slice passed to visit is reused between calls. For n == 0 the
// empty permutation is visited once.
func Enumerate(n int, visit func(perm.Permutation)) {
	if n < 0 {
		return
	}
	p := perm.Identity(n)
	for {
		visit(p)
		if !nextPermutation(p) {
			return
		}
	}
}

// nextPermutation advances p to its lexicographic successor in place and
// reports false once p is the last (descending) permutation.
func nextPermutation(p perm.Permutation) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
