package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	httpadapter "github.com/couchcryptid/vessel-detect-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/vessel-detect-etl/internal/adapter/kafka"
	"github.com/couchcryptid/vessel-detect-etl/internal/config"
	"github.com/couchcryptid/vessel-detect-etl/internal/detector"
	"github.com/couchcryptid/vessel-detect-etl/internal/geo"
	"github.com/couchcryptid/vessel-detect-etl/internal/observability"
	"github.com/couchcryptid/vessel-detect-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to config.yaml (default: CONFIG_PATH or ./config.yaml)")
		once       = flag.Bool("once", false, "run a single pass and exit, ignoring any schedule")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	meta := &geo.GDALReader{
		Binary:      cfg.GDALInfoBinary,
		DefaultEPSG: cfg.DefaultEPSG,
		Logger:      logger,
	}

	det := &detector.Retry{
		Inner:      &detector.Exec{Command: cfg.DetectorCommand, Logger: logger},
		Attempts:   cfg.DetectorRetries,
		Timeout:    cfg.DetectorTimeout,
		Backoff:    5 * time.Second,
		MaxBackoff: time.Minute,
		Logger:     logger,
	}

	var aoi *geo.AOI
	if cfg.AOIPath != "" {
		name := strings.TrimSuffix(filepath.Base(cfg.AOIPath), filepath.Ext(cfg.AOIPath))
		aoi, err = geo.LoadAOI(name, cfg.AOIPath)
		if err != nil {
			logger.Error("failed to load AOI", "path", cfg.AOIPath, "error", err)
			os.Exit(1)
		}
		logger.Info("aoi loaded", "aoi", aoi.Name, "polygons", len(aoi.Polygons))
	}

	var pub pipeline.Publisher
	var pubCloser interface{ Close() error }
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		pub = writer
		pubCloser = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(cfg, meta, det, pub, aoi, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once || cfg.Schedule == "" {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
			closeQuietly(pubCloser, logger)
			os.Exit(1)
		}
		closeQuietly(pubCloser, logger)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Schedule, func() {
		if err := p.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("scheduler started", "schedule", cfg.Schedule)

	// Run once immediately so a fresh deploy drains the backlog without
	// waiting for the first tick.
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("initial run failed", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	<-sched.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeQuietly(pubCloser, logger)

	logger.Info("shutdown complete")
}

func closeQuietly(c interface{ Close() error }, logger *slog.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
