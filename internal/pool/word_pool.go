package pool

import (
	"sync"

	"github.com/23skdu/costfield/internal/metrics"
)

// WordPool pools []uint64 slabs used as BFS mask scratch so that repeated
// engine calls on the same grid shape reuse their allocation.
type WordPool struct {
	pool sync.Pool
}

var globalWordPool = NewWordPool()

// NewWordPool creates an empty pool.
func NewWordPool() *WordPool {
	return &WordPool{}
}

// GetWords retrieves a zeroed slab of n words from the global pool.
func GetWords(n int) []uint64 {
	return globalWordPool.Get(n)
}

// PutWords returns a slab to the global pool.
func PutWords(s []uint64) {
	globalWordPool.Put(s)
}

// Get returns a zeroed slab of length n.
func (p *WordPool) Get(n int) []uint64 {
	if v, ok := p.pool.Get().(*[]uint64); ok && cap(*v) >= n {
		metrics.ScratchPoolOperations.WithLabelValues("hit").Inc()
		s := (*v)[:n]
		clear(s)
		return s
	}
	metrics.ScratchPoolOperations.WithLabelValues("miss").Inc()
	return make([]uint64, n)
}

// Put returns a slab to the pool. The caller must not use s afterwards.
func (p *WordPool) Put(s []uint64) {
	if cap(s) == 0 {
		return
	}
	s = s[:0]
	p.pool.Put(&s)
}
