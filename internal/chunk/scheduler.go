// Package chunk splits a task list into memory-bounded batches and runs them
// through the distance-field engine one chunk at a time.
package chunk

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/metrics"
	"github.com/23skdu/costfield/internal/timing"
)

// ProcessFunc launches the work for one chunk. It may return before the work
// completes; the scheduler's barrier waits for it.
type ProcessFunc func(chunk []grid.Task) error

// ChunkTiming is the measured time of one chunk.
type ChunkTiming struct {
	Index   int
	Offset  int
	Size    int
	Elapsed time.Duration
}

// Scheduler runs chunks in task order and accumulates their measured time.
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	harness *timing.Harness
	barrier timing.Barrier
	logger  zerolog.Logger

	elapsed time.Duration
	chunks  []ChunkTiming
}

// NewScheduler creates a scheduler that times every chunk with h, waiting on
// barrier before stopping the clock.
func NewScheduler(h *timing.Harness, barrier timing.Barrier, logger zerolog.Logger) *Scheduler {
	if h == nil {
		h = timing.New()
	}
	return &Scheduler{
		harness: h,
		barrier: barrier,
		logger:  logger.With().Str("component", "chunk_scheduler").Logger(),
	}
}

// Run calls process once per consecutive chunk of at most chunkSize tasks.
// An empty task list or a non-positive chunk size does nothing. Cancellation
// is checked between chunks.
func (s *Scheduler) Run(ctx context.Context, tasks []grid.Task, chunkSize int, process ProcessFunc) error {
	if len(tasks) == 0 || chunkSize <= 0 {
		return nil
	}
	metrics.ChunkSize.Set(float64(chunkSize))

	for offset, index := 0, 0; offset < len(tasks); offset, index = offset+chunkSize, index+1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(offset+chunkSize, len(tasks))
		chunk := tasks[offset:end]

		d, err := s.harness.Measure(func() error { return process(chunk) }, s.barrier)
		s.elapsed += d
		if err != nil {
			metrics.ChunksProcessedTotal.WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Int("chunk", index).Int("offset", offset).Msg("chunk failed")
			return err
		}
		metrics.ChunksProcessedTotal.WithLabelValues("ok").Inc()
		metrics.ChunkDurationSeconds.Observe(d.Seconds())
		s.chunks = append(s.chunks, ChunkTiming{Index: index, Offset: offset, Size: len(chunk), Elapsed: d})

		s.logger.Debug().
			Int("chunk", index).
			Int("size", len(chunk)).
			Dur("elapsed", d).
			Msg("chunk done")
	}
	return nil
}

// Elapsed returns the accumulated time of all chunks run so far.
func (s *Scheduler) Elapsed() time.Duration {
	return s.elapsed
}

// Chunks returns the per-chunk timings in run order.
func (s *Scheduler) Chunks() []ChunkTiming {
	out := make([]ChunkTiming, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Reset clears accumulated timings.
func (s *Scheduler) Reset() {
	s.elapsed = 0
	s.chunks = nil
}
