package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeviceKernelsTotal counts kernels launched per device
	DeviceKernelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costfield_device_kernels_total",
			Help: "Total number of kernels launched on a compute device",
		},
		[]string{"device", "status"},
	)

	// DeviceSyncDurationSeconds measures how long a device barrier blocked the caller
	DeviceSyncDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costfield_device_sync_duration_seconds",
			Help:    "Time spent waiting in device Synchronize",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"device"},
	)

	// FieldSlotsTotal counts distance fields computed
	FieldSlotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "costfield_field_slots_total",
			Help: "Total number of distance fields computed by the batched engine",
		},
	)

	// FieldLevels records the number of BFS levels executed per engine call
	FieldLevels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "costfield_field_levels",
			Help:    "BFS levels executed per batched engine call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		},
	)

	// ScratchPoolOperations counts mask scratch pool lookups by outcome
	ScratchPoolOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costfield_scratch_pool_operations_total",
			Help: "Mask scratch pool lookups by outcome (hit or miss)",
		},
		[]string{"result"},
	)

	// WindowsExtractedTotal counts windows sliced from padded stacks
	WindowsExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "costfield_windows_extracted_total",
			Help: "Total number of cost-to-go windows extracted",
		},
	)

	// ChunkSize tracks the most recently planned chunk size
	ChunkSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "costfield_chunk_size",
			Help: "Most recently used batch size per engine call",
		},
	)

	// ChunkDurationSeconds measures barrier-synchronized chunk latency
	ChunkDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "costfield_chunk_duration_seconds",
			Help:    "Duration of one chunk including the device barrier",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ChunksProcessedTotal counts processed chunks by outcome
	ChunksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costfield_chunks_processed_total",
			Help: "Total number of chunks processed",
		},
		[]string{"status"},
	)

	// PlannerSearchesTotal counts sequential reference planner calls
	PlannerSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costfield_planner_searches_total",
			Help: "Total number of sequential planner searches",
		},
		[]string{"kind"},
	)

	// BenchmarkSeconds records measured elapsed seconds per map and side
	BenchmarkSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costfield_benchmark_seconds",
			Help: "Measured elapsed seconds of the last benchmark run per map",
		},
		[]string{"map", "side"},
	)

	// BenchmarkSpeedup records sequential/device speedup per map
	BenchmarkSpeedup = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costfield_benchmark_speedup",
			Help: "Sequential time divided by device time for the last run per map",
		},
		[]string{"map"},
	)
)
