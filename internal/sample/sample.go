// Package sample bounds benchmark duration by selecting a deterministic
// subset of a task list.
package sample

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// Mode selects how Sample picks elements.
type Mode int

const (
	// All returns the input unchanged.
	All Mode = iota
	// First keeps the first count elements.
	First
	// Last keeps the last count elements.
	Last
	// Uniform keeps evenly strided elements.
	Uniform
	// Random keeps count elements drawn with a fixed seed.
	Random
)

// DefaultSeed seeds Random so that identical inputs select identical subsets.
const DefaultSeed uint64 = 42

var modeNames = map[Mode]string{
	All:     "all",
	First:   "first",
	Last:    "last",
	Uniform: "uniform",
	Random:  "random",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return All, fmt.Errorf("sample: unknown mode %q", s)
}

// Sample returns a subset of tasks according to mode.
//
// All, or count >= len(tasks), returns tasks itself. A non-positive count with
// any other mode returns an empty slice. Uniform uses the stride
// len(tasks)/count and keeps indices floor(i*stride) for i in [0,count),
// deduplicated and ascending. Random draws count distinct indices with
// DefaultSeed and returns them in input order.
func Sample[T any](tasks []T, mode Mode, count int) []T {
	n := len(tasks)
	if mode == All || count >= n {
		return tasks
	}
	if count <= 0 {
		return []T{}
	}

	switch mode {
	case First:
		return tasks[:count]
	case Last:
		return tasks[n-count:]
	case Uniform:
		return pick(tasks, UniformIndices(n, count))
	case Random:
		return pick(tasks, RandomIndices(n, count, DefaultSeed))
	default:
		return tasks
	}
}

// UniformIndices returns the sorted, deduplicated stride indices for picking
// count of n elements. When n/count < 1 fewer than count indices come back.
func UniformIndices(n, count int) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	step := float64(n) / float64(count)
	seen := make(map[int]struct{}, count)
	indices := make([]int, 0, count)
	for i := 0; i < count; i++ {
		idx := int(float64(i) * step)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// RandomIndices draws count distinct indices from [0,n) using a PCG source
// seeded with seed, and returns them ascending.
func RandomIndices(n, count int, seed uint64) []int {
	if count > n {
		count = n
	}
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	// partial Fisher-Yates: the first count slots end up a uniform sample
	for i := 0; i < count; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	indices := perm[:count]
	sort.Ints(indices)
	return indices
}

func pick[T any](tasks []T, indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = tasks[idx]
	}
	return out
}
