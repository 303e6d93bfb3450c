// Package app wires configuration into a ready assistant and its backends.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"askfolio/internal/assistant"
	"askfolio/internal/chunkstore"
	"askfolio/internal/config"
	"askfolio/internal/kb"
	"askfolio/internal/memory"
	"askfolio/internal/prompt"
	"askfolio/internal/providers"
	"askfolio/internal/retrieval"
	"askfolio/internal/storage"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

type App struct {
	Assistant *assistant.Assistant
	Store     *chunkstore.Store
	// Docs is the dynamic chunk source, nil for the "none" backend.
	Docs chunkstore.Source
	// Writer persists ingested chunks, nil when the backend is read-only.
	Writer chunkstore.Writer

	db     *storage.DB
	memory *memory.Store
}

// Backends opens the docs backend alone; the worker needs nothing else.
func Backends(ctx context.Context, cfg config.Config, logger *zap.Logger) (chunkstore.Source, chunkstore.Writer, *storage.DB, error) {
	switch cfg.DocsBackend {
	case "http":
		return chunkstore.NewHTTPSource(cfg.DocsURL, &http.Client{Timeout: 5 * time.Second}), nil, nil, nil
	case "file":
		f := chunkstore.NewFileSource(cfg.DocsFile)
		return f, f, nil, nil
	case "postgres":
		dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := storage.NewDB(dctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(dctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		repo := storage.NewChunkRepo(db)
		return repo, repo, db, nil
	}
	logger.Info("no docs backend configured, serving the knowledge base only")
	return nil, nil, nil, nil
}

func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	k, err := kb.Load(cfg.KBFile)
	if err != nil {
		return nil, err
	}
	a := &App{}
	a.Docs, a.Writer, a.db, err = Backends(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = chunkstore.New(k, a.Docs, logger)

	opts := assistant.Options{
		TopK:          cfg.TopK,
		LowConfidence: cfg.LowConfidence,
		Logger:        logger,
	}
	if a.db != nil {
		opts.Audit = storage.NewAttemptRepo(a.db)
	}
	if cfg.MemoryDB != "" {
		m, err := memory.Open(cfg.MemoryDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.memory = m
		opts.Memory = m
	}

	pm, err := providers.NewManager(cfg.LLMProviders, &http.Client{Timeout: cfg.ProviderTimeout + 5*time.Second})
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, ref := range pm.Skipped() {
		logger.Warn("provider skipped, no credentials", zap.String("provider", ref.Raw))
	}
	if pm.LLMCount() == 0 {
		logger.Warn("no answer providers available, questions will fail until one is configured")
	}

	// a zero budget disables trimming, so skip loading the BPE tables
	var counter prompt.TokenCounter = prompt.RuneCounter{}
	if cfg.ContextTokenBudget > 0 {
		counter = prompt.NewTokenCounter()
	}
	a.Assistant = assistant.New(
		retrieval.NewRetriever(a.Store),
		prompt.NewAssembler(cfg.ContextTokenBudget, counter),
		pm,
		providers.NewCascade(cfg.ProviderTimeout, logger),
		opts,
	)
	logger.Info("assistant ready",
		zap.Strings("providers", pm.Names()),
		zap.String("docs_backend", cfg.DocsBackend),
		zap.Bool("memory", a.memory != nil),
	)
	return a, nil
}

func (a *App) Close() error {
	var merr *multierror.Error
	if a.memory != nil {
		if err := a.memory.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close memory: %w", err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return merr.ErrorOrNil()
}
