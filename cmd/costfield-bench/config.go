package main

import (
	"errors"
	"flag"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/23skdu/costfield/internal/chunk"
	"github.com/23skdu/costfield/internal/compute"
	cferrors "github.com/23skdu/costfield/internal/errors"
	"github.com/23skdu/costfield/internal/sample"
)

// envPrefix is the prefix of every environment variable read by LoadConfig.
const envPrefix = "COSTFIELD"

// Config holds every benchmark setting. Environment variables supply
// defaults; command-line flags override them.
type Config struct {
	DataDir     string   `envconfig:"DATA_DIR" default:"./data"`
	MapTypes    []string `envconfig:"MAP_TYPES" default:"maze,random"`
	Map         string   `envconfig:"MAP"`
	Radius      int      `envconfig:"RADIUS" default:"10"`
	TargetTasks int      `envconfig:"TARGET_TASKS" default:"20"`
	Sample      string   `envconfig:"SAMPLE" default:"uniform"`
	VRAMMB      int64    `envconfig:"VRAM_MB" default:"2048"`
	ChunkSize   int      `envconfig:"CHUNK_SIZE" default:"0"`
	FilesLimit  int      `envconfig:"FILES_LIMIT" default:"3"`
	FastBreak   bool     `envconfig:"FAST_BREAK" default:"true"`
	Verify      bool     `envconfig:"VERIFY" default:"false"`
	Device      string   `envconfig:"DEVICE" default:"auto"`
	Lanes       int      `envconfig:"LANES" default:"0"`
	ResultsPath string   `envconfig:"RESULTS"`
	WindowsPath string   `envconfig:"WINDOWS"`
	MetricsAddr string   `envconfig:"METRICS_ADDR"`
	LogFormat   string   `envconfig:"LOG_FORMAT" default:"console"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
}

// Config validation errors
var (
	ErrInvalidDataDir     = errors.New("data_dir cannot be empty")
	ErrInvalidMapTypes    = errors.New("map_types cannot be empty")
	ErrInvalidRadius      = errors.New("radius must be non-negative")
	ErrInvalidVRAM        = errors.New("vram_mb must be positive")
	ErrInvalidChunkSize   = errors.New("chunk_size must be non-negative")
	ErrInvalidFilesLimit  = errors.New("files_limit must be non-negative")
	ErrInvalidSampleMode  = errors.New("sample must be all, first, last, uniform or random")
	ErrInvalidDevice      = errors.New("device must be auto, host or stream")
	ErrInvalidLogFormat   = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidTargetTasks = errors.New("target_tasks must be non-negative")
)

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		DataDir:     "./data",
		MapTypes:    []string{"maze", "random"},
		Radius:      10,
		TargetTasks: 20,
		Sample:      "uniform",
		VRAMMB:      2048,
		FilesLimit:  3,
		FastBreak:   true,
		Device:      compute.KindAuto,
		LogFormat:   "console",
		LogLevel:    "info",
	}
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.DataDir == "" {
		return ErrInvalidDataDir
	}
	if len(cfg.MapTypes) == 0 {
		return ErrInvalidMapTypes
	}
	if cfg.Radius < 0 {
		return ErrInvalidRadius
	}
	if cfg.TargetTasks < 0 {
		return ErrInvalidTargetTasks
	}
	if cfg.VRAMMB <= 0 {
		return ErrInvalidVRAM
	}
	if cfg.ChunkSize < 0 {
		return ErrInvalidChunkSize
	}
	if cfg.FilesLimit < 0 {
		return ErrInvalidFilesLimit
	}
	if _, err := sample.ParseMode(cfg.Sample); err != nil {
		return ErrInvalidSampleMode
	}
	switch strings.ToLower(cfg.Device) {
	case compute.KindAuto, compute.KindHost, compute.KindStream:
	default:
		return ErrInvalidDevice
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}

// BudgetBytes returns the memory budget in bytes.
func (c *Config) BudgetBytes() int64 {
	return chunk.MiB(c.VRAMMB)
}

// LoadConfig reads envFile into the environment when it exists and then
// processes COSTFIELD_* variables.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, cferrors.WrapConfigurationError(err, "load_config", "reading env file failed").
				WithContext("path", envFile)
		}
	}
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, cferrors.WrapConfigurationError(err, "load_config", "processing environment failed")
	}
	return cfg, nil
}

// BindFlags registers flags whose defaults come from cfg and which
// write back into cfg when parsed.
func BindFlags(flags *flag.FlagSet, cfg *Config) {
	flags.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Dataset root holding map/<type> and scen/<type>")
	flags.Func("map-types", "Comma-separated map types to benchmark (default "+strings.Join(cfg.MapTypes, ",")+")", func(s string) error {
		cfg.MapTypes = splitList(s)
		return nil
	})
	flags.StringVar(&cfg.Map, "map", cfg.Map, "Only benchmark this map name")
	flags.IntVar(&cfg.Radius, "radius", cfg.Radius, "Cost-to-go window radius")
	flags.IntVar(&cfg.TargetTasks, "target-tasks", cfg.TargetTasks, "Tasks sampled per scenario file (0 = all)")
	flags.StringVar(&cfg.Sample, "sample", cfg.Sample, "Sampling mode: all, first, last, uniform, random")
	flags.Int64Var(&cfg.VRAMMB, "vram-mb", cfg.VRAMMB, "Device memory budget in MiB used to size chunks")
	flags.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Fixed chunk size (0 = derive from budget)")
	flags.IntVar(&cfg.FilesLimit, "files-limit", cfg.FilesLimit, "Scenario files per map type (0 = all)")
	flags.BoolVar(&cfg.FastBreak, "fast-break", cfg.FastBreak, "Stop the sequential search once the window is settled")
	flags.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Compare device windows against the sequential planner")
	flags.StringVar(&cfg.Device, "device", cfg.Device, "Compute device: auto, host, stream")
	flags.IntVar(&cfg.Lanes, "lanes", cfg.Lanes, "Parallel lanes for the stream device (0 = GOMAXPROCS)")
	flags.StringVar(&cfg.ResultsPath, "results", cfg.ResultsPath, "Write result rows to this Parquet file")
	flags.StringVar(&cfg.WindowsPath, "windows", cfg.WindowsPath, "Write device windows to this Arrow IPC file")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
