package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"

	"github.com/JulianZhan/trading-ledger/internal/consumer"
)

const defaultLogPath = "../data/event_log.bin"

func main() {
	if err := run(); err != nil {
		log.Printf("eventprocessor: %v", err)
		os.Exit(1)
	}
}

func run() error {
	path := resolveLogPath()

	if _, err := os.Stat(path); err != nil {
		return err
	}

	stopProfiler, err := startProfiler()
	if err != nil {
		return err
	}
	defer stopProfiler()

	var opts []consumer.Option
	if ckpt := os.Getenv("CHECKPOINT_PATH"); ckpt != "" {
		opts = append(opts, consumer.WithCheckpointPath(ckpt))
	}

	c, err := consumer.New(path, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("eventprocessor: tailing %s", path)
	if err := c.Run(ctx); err != nil {
		return err
	}

	snap := c.Histogram().Snapshot()
	counts := c.Validator().Snapshot()
	log.Printf("eventprocessor: shutdown; processed=%d validated=%d errors=%d %s",
		counts.EventsProcessed, counts.TradesValidated, counts.ValidationErrors, snap)
	return nil
}

// resolveLogPath honors an explicit argv[1], then LOG_PATH, then falls
// back to the default data directory layout.
func resolveLogPath() string {
	if len(os.Args) > 1 && os.Args[1] != "" {
		return os.Args[1]
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		return v
	}
	return filepath.FromSlash(defaultLogPath)
}

// startProfiler starts continuous CPU/allocation profiling against a
// Pyroscope server when PYROSCOPE_SERVER_ADDRESS is set. It is a no-op
// otherwise, since the consumer loop is latency-sensitive enough that we
// don't want to pull in profiling overhead by default.
func startProfiler() (func(), error) {
	addr := os.Getenv("PYROSCOPE_SERVER_ADDRESS")
	if addr == "" {
		return func() {}, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "trading-ledger.eventprocessor",
		ServerAddress:   addr,
		Tags: map[string]string{
			"env": os.Getenv("ENV"),
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = profiler.Stop() }, nil
}
