package compute

import (
	"sync"

	"github.com/23skdu/costfield/internal/metrics"
)

// Host runs kernels inline on the calling goroutine with a single lane.
// Synchronize is a no-op apart from reporting recorded errors.
type Host struct {
	mu     sync.Mutex
	err    error
	closed bool
}

// NewHost creates a synchronous host device.
func NewHost() *Host {
	return &Host{}
}

func (h *Host) Name() string { return KindHost }

func (h *Host) Lanes() int { return 1 }

func (h *Host) Launch(k Kernel) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		h.record(ErrDeviceClosed)
		return
	}
	h.record(runKernel(KindHost, k))
}

func (h *Host) Synchronize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.err
	h.err = nil
	return err
}

func (h *Host) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

func (h *Host) record(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()
}

// runKernel executes k, converting panics into errors and counting outcomes.
func runKernel(device string, k Kernel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.DeviceKernelsTotal.WithLabelValues(device, status).Inc()
	}()
	return k()
}
