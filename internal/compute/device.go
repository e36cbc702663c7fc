package compute

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Kernel is a unit of work submitted to a Device.
type Kernel func() error

// Device defines the execution backend for batched field computations.
//
// Kernels launched on one device run in launch order. Their side effects are
// only guaranteed visible to the caller after Synchronize returns.
type Device interface {
	// Name returns the device name (e.g. "host", "stream").
	Name() string

	// Lanes returns the number of data-parallel lanes available to kernels.
	Lanes() int

	// Launch enqueues a kernel. Asynchronous devices return immediately.
	Launch(k Kernel)

	// Synchronize blocks until every launched kernel has finished and returns
	// the first kernel error recorded since the previous Synchronize.
	Synchronize() error

	// Close drains outstanding work and releases the device.
	Close() error
}

// Device kinds accepted by Open.
const (
	KindAuto   = "auto"
	KindHost   = "host"
	KindStream = "stream"
)

var (
	// ErrUnknownDevice is returned by Open for an unrecognised kind.
	ErrUnknownDevice = errors.New("compute: unknown device kind")
	// ErrDeviceClosed is recorded for kernels launched after Close.
	ErrDeviceClosed = errors.New("compute: device is closed")
)

// Open resolves a device kind. lanes <= 0 means runtime.GOMAXPROCS(0).
// "auto" selects the stream device when more than one lane is available and
// falls back to the host device otherwise.
func Open(kind string, lanes int, logger zerolog.Logger) (Device, error) {
	if lanes <= 0 {
		lanes = runtime.GOMAXPROCS(0)
	}
	switch strings.ToLower(kind) {
	case KindAuto, "":
		if lanes > 1 {
			logger.Debug().Int("lanes", lanes).Msg("auto device: selecting stream")
			return NewStream(lanes), nil
		}
		logger.Info().Msg("auto device: single lane available, falling back to host")
		return NewHost(), nil
	case KindHost:
		return NewHost(), nil
	case KindStream:
		return NewStream(lanes), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, kind)
	}
}

// panicError converts a recovered kernel panic into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("compute: kernel panic: %w", err)
	}
	return fmt.Errorf("compute: kernel panic: %v", r)
}
