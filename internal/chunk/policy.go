package chunk

import "math"

const (
	// DefaultBytesPerCell is the per-slot, per-cell footprint of one engine
	// call: the int32 distance field, its int32 padded copy, and the three
	// 1-bit masks (frontier, next, visited).
	DefaultBytesPerCell = 4 + 4 + 3.0/8

	// DefaultUpperCap bounds the batch size regardless of budget.
	DefaultUpperCap = 2048
)

// SizingPolicy derives the number of tasks processed per engine call.
type SizingPolicy interface {
	ChunkSize(width, height int, budgetBytes int64) int
}

// BudgetPolicy sizes chunks so that one call's working set fits in a memory
// budget.
type BudgetPolicy struct {
	BytesPerCell float64
	UpperCap     int
}

// DefaultPolicy is the BudgetPolicy used by PlanChunkSize.
var DefaultPolicy = BudgetPolicy{BytesPerCell: DefaultBytesPerCell, UpperCap: DefaultUpperCap}

// ChunkSize returns floor(budget / (BytesPerCell*width*height)) clamped to
// [1, UpperCap]. It never returns less than 1.
func (p BudgetPolicy) ChunkSize(width, height int, budgetBytes int64) int {
	upper := p.UpperCap
	if upper < 1 {
		upper = DefaultUpperCap
	}
	perCell := p.BytesPerCell
	if perCell <= 0 {
		perCell = DefaultBytesPerCell
	}

	cells := float64(width) * float64(height)
	if budgetBytes <= 0 || cells <= 0 {
		return 1
	}

	n := math.Floor(float64(budgetBytes) / (perCell * cells))
	if n < 1 {
		return 1
	}
	if n > float64(upper) {
		return upper
	}
	return int(n)
}

// FixedPolicy always returns the same size, for the CLI's -chunk-size override.
type FixedPolicy int

// ChunkSize returns the fixed size, at least 1.
func (p FixedPolicy) ChunkSize(int, int, int64) int {
	if p < 1 {
		return 1
	}
	return int(p)
}

// PlanChunkSize applies DefaultPolicy.
func PlanChunkSize(width, height int, budgetBytes int64) int {
	return DefaultPolicy.ChunkSize(width, height, budgetBytes)
}

// MiB converts mebibytes to bytes.
func MiB(n int64) int64 {
	return n * 1024 * 1024
}
