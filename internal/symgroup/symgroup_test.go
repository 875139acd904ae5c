package symgroup

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/dbsmedya/pealscope/internal/perm"
)

func TestBuild_StageThree(t *testing.T) {
	e, err := Build(3, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, e.Stage)
	assert.Equal(t, "S_3", e.Label)
	assert.Equal(t, 6, e.Order)
	assert.Equal(t, map[string]int{"1-1-1": 1, "2-1": 3, "3": 2}, e.CycleTypeCounts.Map())
	assert.Equal(t, map[string]int{"even": 3, "odd": 3}, e.ParityCounts.Map())

	// Lexicographic enumeration: 012, 021, 102, 120, 201, 210.
	assert.Equal(t, []string{"1-1-1", "2-1", "3"}, e.CycleTypeCounts.Keys())

	require.Len(t, e.CycleTypeSamples, 3)
	twoOne := e.CycleTypeSamples[1]
	assert.Equal(t, "2-1", twoOne.CycleSignature)
	assert.Equal(t, 3, twoOne.Count)
	require.Len(t, twoOne.Samples, 3)
	assert.Equal(t, perm.Permutation{0, 2, 1}, twoOne.Samples[0].Permutation)
	assert.Equal(t, perm.Permutation{1, 0, 2}, twoOne.Samples[1].Permutation)
	assert.Equal(t, perm.Permutation{2, 1, 0}, twoOne.Samples[2].Permutation)
	assert.Equal(t, perm.Odd, twoOne.Samples[0].Parity)
	assert.Equal(t, -1, twoOne.Samples[0].Sign)
}

func TestBuild_CatalogExactness(t *testing.T) {
	for n := 0; n <= 7; n++ {
		e, err := Build(n, Options{})
		require.NoError(t, err)

		factorial := 1
		for i := 2; i <= n; i++ {
			factorial *= i
		}
		assert.Equal(t, factorial, e.Order, "stage %d", n)
		assert.Equal(t, factorial, e.CycleTypeCounts.Total(), "stage %d", n)
		assert.Equal(t, factorial, e.ParityCounts.Total(), "stage %d", n)
		if n >= 2 {
			assert.Equal(t, factorial/2, e.ParityCounts.Get("even"), "stage %d", n)
			assert.Equal(t, factorial/2, e.ParityCounts.Get("odd"), "stage %d", n)
		}

		sampleTotal := 0
		for _, cts := range e.CycleTypeSamples {
			assert.LessOrEqual(t, len(cts.Samples), DefaultSamplesPerCycle)
			assert.Equal(t, min(cts.Count, DefaultSamplesPerCycle), len(cts.Samples))
			for _, s := range cts.Samples {
				assert.Equal(t, cts.CycleSignature, perm.CycleSignature(s.Cycles))
			}
			sampleTotal += cts.Count
		}
		assert.Equal(t, factorial, sampleTotal)
	}
}

func TestBuild_StageZeroAndOne(t *testing.T) {
	zero, err := Build(0, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, zero.Order)
	assert.Equal(t, map[string]int{"": 1}, zero.CycleTypeCounts.Map())
	assert.Equal(t, 1, zero.ParityCounts.Get("even"))
	require.Len(t, zero.CanonicalGenerators, 1)

	one, err := Build(1, Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 1}, one.CycleTypeCounts.Map())
	require.Len(t, one.CanonicalGenerators, 1)
	assert.Equal(t, "identity", one.CanonicalGenerators[0].Label)
}

func TestBuild_SamplesPerCycleOption(t *testing.T) {
	e, err := Build(4, Options{SamplesPerCycle: 1})
	require.NoError(t, err)
	for _, cts := range e.CycleTypeSamples {
		assert.Len(t, cts.Samples, 1)
	}
	assert.True(t, sort.SliceIsSorted(e.CycleTypeSamples, func(i, j int) bool {
		return e.CycleTypeSamples[i].CycleSignature < e.CycleTypeSamples[j].CycleSignature
	}))
}

func TestBuild_ScopeLimit(t *testing.T) {
	tests := []struct {
		name  string
		stage int
		opts  Options
		msg   string
	}{
		{name: "above default", stage: 9, opts: Options{}, msg: "exceeds the exhaustive enumeration limit of 8"},
		{name: "above custom", stage: 5, opts: Options{MaxStage: 4}, msg: "limit of 4"},
		{name: "negative", stage: -1, opts: Options{}, msg: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Build(tt.stage, tt.opts)
			assert.Nil(t, e)
			var scopeErr *ScopeLimitError
			require.True(t, errors.As(err, &scopeErr))
			assert.Equal(t, tt.stage, scopeErr.Stage)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGenerators(t *testing.T) {
	gens := Generators(4)
	labels := make([]string, len(gens))
	for i, g := range gens {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{"identity", "swap_0_1", "swap_1_2", "swap_2_3", "long_cycle", "reverse"}, labels)

	assert.Equal(t, perm.Permutation{0, 1, 2, 3}, gens[0].Permutation)
	assert.Equal(t, perm.Permutation{0, 2, 1, 3}, gens[2].Permutation)
	assert.Equal(t, perm.Odd, gens[2].Parity)
	assert.Equal(t, perm.Permutation{1, 2, 3, 0}, gens[4].Permutation)
	assert.Equal(t, "4", gens[4].CycleSignature)
	assert.Equal(t, perm.Permutation{3, 2, 1, 0}, gens[5].Permutation)
	assert.Equal(t, "2-2", gens[5].CycleSignature)
	assert.Equal(t, "Order reversal", gens[5].Summary)

	two := Generators(2)
	require.Len(t, two, 3) // identity, swap_0_1, reverse
	assert.Equal(t, "reverse", two[2].Label)
}

func TestEnumerate_MatchesOracle(t *testing.T) {
	for n := 1; n <= 6; n++ {
		var got []string
		Enumerate(n, func(p perm.Permutation) {
			got = append(got, p.Key())
		})

		var want []string
		for _, raw := range combin.Permutations(n, n) {
			want = append(want, perm.Permutation(raw).Key())
		}

		// Single-digit keys sort the same as the permutations themselves.
		assert.True(t, sort.StringsAreSorted(got), "stage %d not lexicographic", n)
		sort.Strings(want)
		gotSorted := append([]string(nil), got...)
		sort.Strings(gotSorted)
		assert.Equal(t, want, gotSorted, "stage %d", n)
	}
}

func TestBuildAll(t *testing.T) {
	entries, err := BuildAll([]int{5, 3, 5, 4}, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Stage)
	assert.Equal(t, 4, entries[1].Stage)
	assert.Equal(t, 5, entries[2].Stage)

	_, err = BuildAll([]int{3, 12}, Options{})
	var scopeErr *ScopeLimitError
	assert.True(t, errors.As(err, &scopeErr))
}

func TestCache(t *testing.T) {
	c := NewCache(Options{MaxStage: 6})
	assert.Equal(t, 6, c.Options().MaxStage)
	assert.Equal(t, DefaultSamplesPerCycle, c.Options().SamplesPerCycle)

	var wg sync.WaitGroup
	results := make([]*Entry, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.Get(5)
			assert.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	for _, e := range results {
		assert.Same(t, results[0], e)
	}
	assert.Equal(t, 1, c.Len())

	_, err := c.Get(7)
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len(), "failed builds are not cached")
}
