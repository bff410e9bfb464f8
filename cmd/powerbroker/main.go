package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"powerbroker/internal/backtest"
	"powerbroker/internal/broker"
	"powerbroker/internal/config"
	"powerbroker/internal/db"
	"powerbroker/internal/execution"
	"powerbroker/internal/metrics"
	"powerbroker/internal/performance"
	"powerbroker/internal/usage"
)

func main() {
	replayPath := flag.String("replay", "-", "JSON-lines event log to replay, - for stdin")
	seed := flag.Uint64("seed", 0, "Random seed for price jitter (0 picks one)")
	flag.Parse()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil && errors.Is(err, os.ErrNotExist) {
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("powerbroker starting", "bid_strategy", cfg.Market.BidStrategy, "num_stairs", cfg.Market.NumStairs)

	database, err := db.Open(cfg.General.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database initialized", "path", cfg.General.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	s1, s2 := *seed, *seed+1
	if *seed == 0 {
		s1, s2 = rand.Uint64(), rand.Uint64()
	}

	table := usage.NewTable(cfg.Market.RecordLength)
	b := broker.New(cfg, broker.Deps{
		Predictor: table,
		Corrector: usage.NewCorrector(cfg.Policy.FudgeGain),
		Sink:      execution.LogSink{},
		DB:        database,
		Metrics:   m,
		Rand:      rand.New(rand.NewPCG(s1, s2)),
	})
	agent := broker.NewAgent(b, cfg.Schedule.QueueSize, cfg.Schedule.ReportInterval.Duration)

	input, closeInput, err := openReplay(*replayPath)
	if err != nil {
		slog.Error("failed to open replay", "path", *replayPath, "error", err)
		os.Exit(1)
	}
	defer closeInput()

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return agent.Run(gctx) })
	if cfg.Metrics.ListenAddr != "" {
		srv := metrics.NewServer(cfg.Metrics.ListenAddr, reg)
		g.Go(func() error { return srv.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		if _, err := backtest.NewRunner(agent, table).Run(gctx, input); err != nil {
			return err
		}
		report, err := performance.NewTracker(database).Generate()
		if err != nil {
			return err
		}
		performance.LogReport(report)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("powerbroker error", "error", err)
		os.Exit(1)
	}

	slog.Info("powerbroker stopped")
}

func openReplay(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
