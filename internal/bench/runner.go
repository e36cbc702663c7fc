// Package bench compares the batched distance-field engine against the
// sequential reference planner on MovingAI scenario sets.
package bench

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/23skdu/costfield/internal/chunk"
	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/export"
	"github.com/23skdu/costfield/internal/field"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/metrics"
	"github.com/23skdu/costfield/internal/planner"
	"github.com/23skdu/costfield/internal/sample"
	"github.com/23skdu/costfield/internal/timing"
	"github.com/23skdu/costfield/internal/window"
)

// ErrNoTasks is returned by RunMap when sampling leaves nothing to run.
var ErrNoTasks = errors.New("bench: no tasks to run")

// Config controls one benchmark run.
type Config struct {
	Radius      int
	TargetTasks int // <= 0 keeps every task
	Sample      sample.Mode
	BudgetBytes int64
	ChunkSize   int // > 0 overrides Policy
	FastBreak   bool
	Verify      bool
	Policy      chunk.SizingPolicy
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Radius:      10,
		TargetTasks: 20,
		Sample:      sample.Uniform,
		BudgetBytes: chunk.MiB(2048),
		FastBreak:   true,
		Policy:      chunk.DefaultPolicy,
	}
}

// WindowSink receives the device windows of each map after timing has ended.
type WindowSink interface {
	WriteWindows(mapName string, tasks []grid.Task, windows []window.Window) error
}

// Result is the outcome of benchmarking one map.
type Result struct {
	RunID      uuid.UUID
	Map        string
	Width      int
	Height     int
	Tasks      int
	ChunkSize  int
	Chunks     []chunk.ChunkTiming
	Sequential time.Duration
	Device     time.Duration
	DeviceName string
	Mismatches int
	StartedAt  time.Time
}

// Speedup returns Sequential/Device, or 0 when no device time was measured.
func (r Result) Speedup() float64 {
	if r.Device <= 0 {
		return 0
	}
	return r.Sequential.Seconds() / r.Device.Seconds()
}

// Row converts r for export.
func (r Result) Row(radius int, fastBreak bool) export.ResultRow {
	return export.ResultRow{
		RunID:             r.RunID.String(),
		Map:               r.Map,
		Width:             int32(r.Width),
		Height:            int32(r.Height),
		Tasks:             int32(r.Tasks),
		ChunkSize:         int32(r.ChunkSize),
		Radius:            int32(radius),
		FastBreak:         fastBreak,
		Device:            r.DeviceName,
		SequentialSeconds: r.Sequential.Seconds(),
		DeviceSeconds:     r.Device.Seconds(),
		Speedup:           r.Speedup(),
		StartedAt:         export.Millis(r.StartedAt),
	}
}

// Runner benchmarks maps on one compute device.
type Runner struct {
	cfg       Config
	dev       compute.Device
	engine    *field.Engine
	extractor *window.Extractor
	harness   *timing.Harness
	sink      WindowSink
	runID     uuid.UUID
	logger    zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHarness replaces the default timing harness.
func WithHarness(h *timing.Harness) Option {
	return func(r *Runner) { r.harness = h }
}

// WithSink delivers device windows to s.
func WithSink(s WindowSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithRunID fixes the run identifier stamped on results.
func WithRunID(id uuid.UUID) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a runner on dev.
func NewRunner(dev compute.Device, cfg Config, logger zerolog.Logger, opts ...Option) *Runner {
	if cfg.Policy == nil {
		cfg.Policy = chunk.DefaultPolicy
	}
	if cfg.Radius < 0 {
		cfg.Radius = 0
	}
	r := &Runner{
		cfg:       cfg,
		dev:       dev,
		engine:    field.NewEngine(dev, logger),
		extractor: window.NewExtractor(dev),
		harness:   timing.New(),
		runID:     uuid.New(),
		logger:    logger.With().Str("component", "bench").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the identifier stamped on this runner's results.
func (r *Runner) RunID() uuid.UUID {
	return r.runID
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

type pendingChunk struct {
	tasks   []grid.Task
	windows []window.Window
}

// launch queues the engine and extractor kernels for tasks and returns the
// windows that will be filled once the device is synchronized.
func (r *Runner) launch(g *grid.Grid, tasks []grid.Task) []window.Window {
	agents := make([]grid.Cell, len(tasks))
	goals := make([]grid.Cell, len(tasks))
	for i, t := range tasks {
		agents[i], goals[i] = t.Agent, t.Goal
	}
	stack := r.engine.Compute(g, goals, 0)
	return r.extractor.Extract(stack, agents, r.cfg.Radius)
}

// RunMap samples tasks, runs them through the device in memory-bounded
// chunks and through the sequential planner one at a time, and reports both
// times. Device time covers only the chunk loop; the warm-up call and window
// delivery to the sink are excluded.
func (r *Runner) RunMap(ctx context.Context, name string, g *grid.Grid, tasks []grid.Task) (Result, error) {
	sampled := tasks
	if r.cfg.TargetTasks > 0 {
		sampled = sample.Sample(tasks, r.cfg.Sample, r.cfg.TargetTasks)
	}
	if len(sampled) == 0 {
		return Result{}, ErrNoTasks
	}

	size := r.cfg.ChunkSize
	if size <= 0 {
		size = r.cfg.Policy.ChunkSize(g.Width(), g.Height(), r.cfg.BudgetBytes)
	}

	res := Result{
		RunID:      r.runID,
		Map:        name,
		Width:      g.Width(),
		Height:     g.Height(),
		Tasks:      len(sampled),
		ChunkSize:  size,
		DeviceName: r.dev.Name(),
		StartedAt:  time.Now(),
	}
	log := r.logger.With().Str("map", name).Logger()

	barrier := timing.Barrier(r.dev.Synchronize)
	if err := r.harness.Warmup(func() error {
		r.launch(g, sampled[:1])
		return nil
	}, barrier); err != nil {
		return res, err
	}

	var pending []pendingChunk
	sched := chunk.NewScheduler(r.harness, barrier, log)
	err := sched.Run(ctx, sampled, size, func(c []grid.Task) error {
		pending = append(pending, pendingChunk{tasks: c, windows: r.launch(g, c)})
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Device = sched.Elapsed()
	res.Chunks = sched.Chunks()

	p := planner.New(g)
	reference := make([]window.Window, len(sampled))
	res.Sequential, err = r.harness.MeasureSequential(func() error {
		for i, t := range sampled {
			reference[i] = p.Cost2GoWindow(t.Agent, t.Goal, r.cfg.Radius, 4, r.cfg.FastBreak)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	if r.cfg.Verify {
		res.Mismatches = mismatches(pending, reference)
		if res.Mismatches > 0 {
			log.Warn().Int("mismatches", res.Mismatches).Msg("device windows differ from reference")
		}
	}

	if r.sink != nil {
		for _, pc := range pending {
			if err := r.sink.WriteWindows(name, pc.tasks, pc.windows); err != nil {
				return res, err
			}
		}
	}

	metrics.BenchmarkSeconds.WithLabelValues(name, "sequential").Set(res.Sequential.Seconds())
	metrics.BenchmarkSeconds.WithLabelValues(name, "device").Set(res.Device.Seconds())
	metrics.BenchmarkSpeedup.WithLabelValues(name).Set(res.Speedup())

	log.Info().
		Int("tasks", res.Tasks).
		Int("chunk_size", res.ChunkSize).
		Dur("sequential", res.Sequential).
		Dur("device", res.Device).
		Float64("speedup", res.Speedup()).
		Msg("map benchmarked")
	return res, nil
}

// mismatches counts windows whose cells differ from the reference.
func mismatches(pending []pendingChunk, reference []window.Window) int {
	n, i := 0, 0
	for _, pc := range pending {
		for _, w := range pc.windows {
			if !slices.Equal(w.Values, reference[i].Values) {
				n++
			}
			i++
		}
	}
	return n
}
