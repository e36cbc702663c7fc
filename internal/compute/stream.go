package compute

import (
	"sync"
	"time"

	"github.com/23skdu/costfield/internal/metrics"
)

const streamQueueDepth = 64

// Stream is an asynchronous device. Kernels are queued and executed in order
// on a dedicated goroutine; data-parallel loops inside a kernel fan out over
// Lanes() goroutines via ParallelFor. Launch never waits for a kernel to run,
// so results must be read only after Synchronize.
type Stream struct {
	lanes int
	queue chan Kernel
	done  chan struct{}

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	err     error
	closed  bool
}

// NewStream starts a stream device with the given lane count (minimum 1).
func NewStream(lanes int) *Stream {
	if lanes < 1 {
		lanes = 1
	}
	s := &Stream{
		lanes: lanes,
		queue: make(chan Kernel, streamQueueDepth),
		done:  make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *Stream) Name() string { return KindStream }

func (s *Stream) Lanes() int { return s.lanes }

func (s *Stream) Launch(k Kernel) {
	s.mu.Lock()
	if s.closed {
		if s.err == nil {
			s.err = ErrDeviceClosed
		}
		s.mu.Unlock()
		return
	}
	s.pending++
	s.mu.Unlock()

	s.queue <- k
}

func (s *Stream) Synchronize() error {
	start := time.Now()
	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	err := s.err
	s.err = nil
	s.mu.Unlock()
	metrics.DeviceSyncDurationSeconds.WithLabelValues(KindStream).Observe(time.Since(start).Seconds())
	return err
}

// Close waits for queued kernels, then stops the worker goroutine.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()

	close(s.queue)
	<-s.done
	return nil
}

func (s *Stream) run() {
	defer close(s.done)
	for k := range s.queue {
		err := runKernel(KindStream, k)

		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}
}
