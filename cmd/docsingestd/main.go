// Package main implements docsingestd, the documentation-ingestion
// pipeline orchestrator service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wessley-labs/docsingest/engine/discovery"
	"github.com/wessley-labs/docsingest/engine/embed"
	"github.com/wessley-labs/docsingest/engine/fetch"
	"github.com/wessley-labs/docsingest/engine/orchestrator"
	"github.com/wessley-labs/docsingest/engine/registry"
	"github.com/wessley-labs/docsingest/engine/synthesize"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/providers/browser"
	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedClient, embedModel, err := buildEmbeddingClient(cfg)
	if err != nil {
		return fmt.Errorf("build embedding client: %w", err)
	}
	llmClient, llmModel, err := buildLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}
	searchClient := buildSearchClient(cfg)

	store, err := vectorstore.New(cfg.VectorStoreURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("vector store connect: %w", err)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, embedClient.Dim(embedModel)); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	taskStore, err := registry.NewJSONStore(cfg.TaskStorePath, logger)
	if err != nil {
		return fmt.Errorf("task store: %w", err)
	}
	reg := registry.New(taskStore, nil, logger)

	gov := governor.New()
	pool := browser.NewHTTPPool(30 * time.Second)

	discEngine := discovery.New(searchClient, pool, gov.BrowserPageLimiter, logger)
	fetchEngine := fetch.New(pool, gov.BrowserPageLimiter, logger)
	synthEngine := synthesize.New(llmClient, cfg.PipelineLLMProvider, llmModel, gov.LLMCallLimiter, logger)
	embedEngine := embed.New(store, embedClient, embedModel, gov, logger)

	orch := orchestrator.New(reg, gov, discEngine, fetchEngine, synthEngine, embedEngine, logger)
	go orch.Run(ctx)

	handler := buildHTTPHandler(deps{orch: orch, registry: reg, logger: logger}, "*")
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("docsingestd starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
