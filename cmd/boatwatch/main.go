package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/observability/metrics"
	"github.com/bakkerme/boatwatch/internal/observability/otelx"
	"github.com/bakkerme/boatwatch/internal/runner/factory"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to boatwatch document")
	runOnce := flag.Bool("run-once", env.RunOnce, "run a single cycle and exit")
	showStats := flag.Bool("stats", false, "print store statistics and exit")
	statsFormat := flag.String("stats-format", "table", "output format for -stats: table or json")
	flag.Parse()

	logger := newLogger(os.Stdout, env.LogFormat, env.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}
	if err := doc.Validate(); err != nil {
		log.Fatalf("invalid document %s: %v", *configPath, err)
	}

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)
	if env.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, env.MetricsAddr, registry, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	f := factory.NewFromEnvConfig(logger, env)
	f.Metrics = m

	store, err := f.OpenStore(ctx, doc.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if *showStats {
		if err := printStats(os.Stdout, store.Stats(), *statsFormat); err != nil {
			log.Fatalf("failed to print stats: %v", err)
		}
		return
	}

	r, err := f.NewRunner(doc, store)
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	if doc.Watch.AnnounceStartup {
		if err := r.AnnounceStatus(ctx); err != nil {
			logger.Warn("startup status message failed", "error", err)
		}
	}

	if *runOnce {
		result, err := r.RunCycle(ctx)
		if err != nil {
			log.Fatalf("run failed: %v", err)
		}
		logger.Info("run complete", "fetched", result.Fetched, "new", len(result.NewItems))
		return
	}

	if err := r.Start(ctx, f.NewTrigger(doc.Watch)); err != nil {
		log.Fatalf("failed to start runner: %v", err)
	}
	logger.Info("boatwatch started", "watch", doc.Watch.Name, "interval", doc.Watch.Interval.Std(), "schedule", doc.Watch.Schedule)

	<-ctx.Done()
	logger.Info("shutdown requested, waiting for running cycle")
	r.Wait()
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	lvl := parseLevel(level)
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	case "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
