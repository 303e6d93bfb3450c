package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"askfolio/internal/activities"
	"askfolio/internal/app"
	"askfolio/internal/config"
	"askfolio/internal/ingest"
	"askfolio/internal/logging"
	"askfolio/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.TemporalAddress == "" {
		logger.Fatal("ASKFOLIO_TEMPORAL_ADDRESS is required for the ingest worker")
	}

	_, writer, db, err := app.Backends(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("open docs backend", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}
	if writer == nil {
		logger.Fatal("docs backend is read-only, set ASKFOLIO_DOCS_BACKEND to file or postgres", zap.String("docs_backend", cfg.DocsBackend))
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	fetcher := ingest.NewFetcher(&http.Client{Timeout: 60 * time.Second}, 3, 2*time.Second)
	activities.Register(w, activities.New(fetcher, writer, "", logger))

	logger.Info("askfolio worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("docs_backend", cfg.DocsBackend),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
