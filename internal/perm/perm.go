// Package perm provides the permutation primitives used throughout pealscope:
// cycle decomposition, inversion counting, parity and cycle signatures.
//
// A Permutation is stored in one-line form. For a change-ringing row the index
// is the position and the value is the bell standing in that position.
package perm

import (
	"sort"
	"strconv"
	"strings"
)

// Permutation is a permutation of {0, ..., n-1} in one-line form.
type Permutation []int

// Parity classifies a permutation as even or odd.
type Parity string

const (
	Even Parity = "even"
	Odd  Parity = "odd"
)

// Description bundles the derived attributes of a single permutation.
type Description struct {
	Permutation    Permutation `json:"permutation"`
	Cycles         [][]int     `json:"cycles"`
	CycleSignature string      `json:"cycleSignature"`
	Parity         Parity      `json:"parity"`
	Sign           int         `json:"sign"`
}

// Cycles returns the cycle partition of p, fixed points included.
// Cycles appear in order of their smallest index and each cycle is listed in
// traversal order starting from that index.
func Cycles(p Permutation) [][]int {
	visited := make([]bool, len(p))
	cycles := make([][]int, 0, len(p))

	for start := range p {
		if visited[start] {
			continue
		}
		var cycle []int
		for current := start; !visited[current]; current = p[current] {
			visited[current] = true
			cycle = append(cycle, current)
		}
		cycles = append(cycles, cycle)
	}

	return cycles
}

// InversionCount returns the number of pairs i < j with p[i] > p[j].
func InversionCount(p Permutation) int {
	inversions := 0
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			if p[i] > p[j] {
				inversions++
			}
		}
	}
	return inversions
}

// ParityOf returns the parity of p based on its inversion count.
func ParityOf(p Permutation) Parity {
	if InversionCount(p)%2 == 0 {
		return Even
	}
	return Odd
}

// Sign maps even to +1 and odd to -1.
func Sign(parity Parity) int {
	if parity == Even {
		return 1
	}
	return -1
}

// CycleSignature renders the cycle lengths sorted descending and joined
// with "-", e.g. "3-1-1" for a 3-cycle with two fixed points.
func CycleSignature(cycles [][]int) string {
	lengths := make([]int, len(cycles))
	for i, c := range cycles {
		lengths[i] = len(c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))

	parts := make([]string, len(lengths))
	for i, l := range lengths {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, "-")
}

// Describe computes the full Description of p.
func Describe(p Permutation) Description {
	cycles := Cycles(p)
	parity := ParityOf(p)
	return Description{
		Permutation:    p.Clone(),
		Cycles:         cycles,
		CycleSignature: CycleSignature(cycles),
		Parity:         parity,
		Sign:           Sign(parity),
	}
}

// Identity returns rounds on n bells: 0, 1, ..., n-1.
func Identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// IsIdentity reports whether p[i] == i for every i.
func IsIdentity(p Permutation) bool {
	for i, v := range p {
		if v != i {
			return false
		}
	}
	return true
}

// Inverse returns q such that q[p[i]] = i.
// p must be a valid permutation.
func Inverse(p Permutation) Permutation {
	q := make(Permutation, len(p))
	for i, v := range p {
		q[v] = i
	}
	return q
}

// Clone returns a copy of p.
func (p Permutation) Clone() Permutation {
	if p == nil {
		return nil
	}
	out := make(Permutation, len(p))
	copy(out, p)
	return out
}

// Key returns a string that uniquely identifies the tuple of values in p.
// Unlike Digits it stays unambiguous for stages above 10.
func (p Permutation) Key() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Digits concatenates the decimal representation of every value.
func (p Permutation) Digits() string {
	var sb strings.Builder
	for _, v := range p {
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}
