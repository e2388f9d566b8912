package rrepr

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// DefaultSize is the per-dimension sample size used when none is configured
const DefaultSize = 2

// RandomSource draws uniform integers in [0, n). *rand.Rand satisfies it.
// Sources are not shared between calls unless the caller passes one in, and
// one passed to concurrent calls must be safe for concurrent use.
type RandomSource interface {
	IntN(n int) int
}

// NewRand returns a PCG-backed source. A nil seed draws one from the runtime.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}

// IndexSelection maps each dimension name to the ordered positions kept along it
type IndexSelection map[string][]int

// Select chooses up to size positions per dimension. Dimensions no longer than
// size keep their full range; longer ones get size distinct positions drawn
// uniformly without replacement. Positions are sorted ascending.
func Select(dims []Dim, size int, rng RandomSource) (IndexSelection, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: sample size must be positive, got %d", ErrConfiguration, size)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}

	sel := make(IndexSelection, len(dims))
	for _, d := range dims {
		if _, dup := sel[d.Name]; dup {
			return nil, fmt.Errorf("%w: dimension %q listed twice", ErrStructuralInconsistency, d.Name)
		}
		if d.Size < 0 {
			return nil, fmt.Errorf("%w: dimension %q has negative size %d", ErrStructuralInconsistency, d.Name, d.Size)
		}
		if d.Size <= size {
			sel[d.Name] = fullRange(d.Size)
			continue
		}
		sel[d.Name] = floyd(d.Size, size, rng)
	}
	return sel, nil
}

func fullRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

// floyd draws k distinct integers from [0, n) using Floyd's algorithm, which
// touches k random numbers regardless of n
func floyd(n, k int, rng RandomSource) []int {
	var (
		seen = make(map[int]struct{}, k)
		out  = make([]int, 0, k)
	)
	for j := n - k; j < n; j++ {
		t := rng.IntN(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Check verifies sel against the dimension sizes: every position in range and
// unique within its dimension. Dimensions absent from sel are left whole.
func (sel IndexSelection) Check(dims []Dim) error {
	sizes := make(map[string]int, len(dims))
	for _, d := range dims {
		sizes[d.Name] = d.Size
	}
	for name, idx := range sel {
		size, ok := sizes[name]
		if !ok {
			return fmt.Errorf("%w: selection names unknown dimension %q", ErrConfiguration, name)
		}
		seen := make(map[int]bool, len(idx))
		for _, i := range idx {
			if i < 0 || i >= size {
				return fmt.Errorf("%w: position %d out of range for dimension %q of size %d", ErrConfiguration, i, name, size)
			}
			if seen[i] {
				return fmt.Errorf("%w: position %d selected twice along %q", ErrConfiguration, i, name)
			}
			seen[i] = true
		}
	}
	return nil
}
