// Command costfield-bench compares batched cost-to-go window computation on a
// compute device against the sequential reference planner over MovingAI
// scenario files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/23skdu/costfield/internal/bench"
	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/export"
	"github.com/23skdu/costfield/internal/logging"
	"github.com/23skdu/costfield/internal/sample"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "costfield-bench:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(".env")
	if err != nil {
		return err
	}
	flags := flag.NewFlagSet("costfield-bench", flag.ContinueOnError)
	BindFlags(flags, &cfg)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Output: os.Stderr})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	dev, err := compute.Open(cfg.Device, cfg.Lanes, logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	mode, _ := sample.ParseMode(cfg.Sample)
	benchCfg := bench.DefaultConfig()
	benchCfg.Radius = cfg.Radius
	benchCfg.TargetTasks = cfg.TargetTasks
	benchCfg.Sample = mode
	benchCfg.BudgetBytes = cfg.BudgetBytes()
	benchCfg.ChunkSize = cfg.ChunkSize
	benchCfg.FastBreak = cfg.FastBreak
	benchCfg.Verify = cfg.Verify

	var opts []bench.Option
	var windows *export.WindowWriter
	if cfg.WindowsPath != "" {
		f, err := os.Create(cfg.WindowsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		windows = export.NewWindowWriter(f, cfg.Radius, nil)
		opts = append(opts, bench.WithSink(windows))
	}

	runner := bench.NewRunner(dev, benchCfg, logger, opts...)
	logger.Info().
		Str("run_id", runner.RunID().String()).
		Str("device", dev.Name()).
		Int("lanes", dev.Lanes()).
		Int("radius", cfg.Radius).
		Int("target_tasks", cfg.TargetTasks).
		Int64("vram_mb", cfg.VRAMMB).
		Bool("fast_break", cfg.FastBreak).
		Msg("benchmark starting")

	results, runErr := runner.RunDataset(ctx, bench.Dataset{
		Root:       cfg.DataDir,
		MapTypes:   cfg.MapTypes,
		Map:        cfg.Map,
		FilesLimit: cfg.FilesLimit,
	})

	if err := bench.WriteTable(os.Stdout, results); err != nil {
		return err
	}
	if windows != nil {
		if err := windows.Close(); err != nil {
			return err
		}
	}
	if cfg.ResultsPath != "" {
		rows := make([]export.ResultRow, len(results))
		for i, r := range results {
			rows[i] = r.Row(cfg.Radius, cfg.FastBreak)
		}
		if err := export.WriteResultsFile(cfg.ResultsPath, rows); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.ResultsPath).Int("rows", len(rows)).Msg("results written")
	}
	if errors.Is(runErr, context.Canceled) {
		logger.Warn().Msg("benchmark interrupted")
		return nil
	}
	return runErr
}

func serveMetrics(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info().Str("address", addr).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Failed to start metrics server")
		}
	}()
	return srv
}
