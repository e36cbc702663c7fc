// Package timing measures engine invocations so that work on an asynchronous
// device and the synchronous reference planner are timed with the same
// start/stop protocol.
package timing

import (
	"errors"
	"time"
)

// Op is the operation being measured.
type Op func() error

// Barrier blocks until all asynchronously queued work has completed.
type Barrier func() error

// ErrMissingBarrier is returned by Warmup and Measure when no barrier is given.
// Use MeasureSequential for operations known to be synchronous.
var ErrMissingBarrier = errors.New("timing: device barrier is required")

// Harness times operations with a monotonic clock.
type Harness struct {
	now func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		h.now = now
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Warmup runs op once followed by barrier and discards the elapsed time, so
// one-time backend initialisation is not charged to a later measurement.
// op should process a minimal (size-1) input.
func (h *Harness) Warmup(op Op, barrier Barrier) error {
	if barrier == nil {
		return ErrMissingBarrier
	}
	if err := op(); err != nil {
		_ = barrier()
		return err
	}
	return barrier()
}

// Measure returns the time from just before op until barrier returns.
func (h *Harness) Measure(op Op, barrier Barrier) (time.Duration, error) {
	if barrier == nil {
		return 0, ErrMissingBarrier
	}
	start := h.now()
	if err := op(); err != nil {
		// Drain whatever op launched before failing; op's error wins.
		_ = barrier()
		return h.now().Sub(start), err
	}
	err := barrier()
	return h.now().Sub(start), err
}

// MeasureSequential times a synchronous op with no barrier.
func (h *Harness) MeasureSequential(op Op) (time.Duration, error) {
	start := h.now()
	err := op()
	return h.now().Sub(start), err
}
