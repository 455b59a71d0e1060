// Package fetch implements the Fetch Engine (spec §4.5): per-source text
// extraction from the Discovery artifact, one Markdown file per source.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/engine/pipeline"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/providers/browser"
)

const baseOutputDir = "data/fetch_output"

// progressEvery controls how often a progress line is emitted (spec §4.5
// step 6: "every ~5 items").
const progressEvery = 5

// Engine runs the Fetch stage end to end.
type Engine struct {
	Browser browser.Pool
	Limiter *governor.Limiter
	Logger  *slog.Logger
}

// New builds a Fetch Engine.
func New(pool browser.Pool, limiter *governor.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Browser: pool, Limiter: limiter, Logger: logger}
}

// ProgressFunc receives a human-readable progress line.
type ProgressFunc func(string)

// Run executes the Fetch stage for req, reading the Discovery artifact and
// writing one Markdown file per successfully extracted source.
func (e *Engine) Run(ctx context.Context, req domain.Request, disc domain.DiscoveryResult, taskID string, checker pipeline.CancelChecker, onProgress ProgressFunc) (domain.FetchResult, error) {
	sources, err := readSourcesArtifact(disc.SourcesFilePath)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("fetch: read discovery artifact: %w", err)
	}

	maxURLs := req.MaxURLs
	if maxURLs > 0 && len(sources) > maxURLs {
		sources = sources[:maxURLs]
	}

	outDir := filepath.Join(baseOutputDir, taskID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.FetchResult{}, fmt.Errorf("fetch: mkdir %s: %w", outDir, err)
	}

	var (
		attempted int
		succeeded int
	)
	for i, source := range sources {
		if checker != nil && checker.IsCancelled(taskID) {
			return domain.FetchResult{}, domain.ErrCancelled
		}

		if e.Limiter != nil {
			if err := e.Limiter.Acquire(ctx); err != nil {
				return domain.FetchResult{}, fmt.Errorf("fetch: %w", err)
			}
		}
		attempted++
		text, err := extractSource(ctx, source, disc.IsSourceLocal, e.Browser)
		if e.Limiter != nil {
			e.Limiter.Release()
		}

		if err != nil || text == "" {
			e.Logger.Warn("fetch: extraction failed", "source", source, "error", err)
		} else {
			path := filepath.Join(outDir, fetchFilename(source, disc.IsSourceLocal))
			if writeErr := os.WriteFile(path, []byte(text), 0o644); writeErr != nil {
				e.Logger.Warn("fetch: write failed", "source", source, "error", writeErr)
			} else {
				succeeded++
			}
		}

		if onProgress != nil && (i+1)%progressEvery == 0 {
			onProgress(fmt.Sprintf("Fetch Stage: Processing %d/%d: %s", i+1, len(sources), source))
		}
	}

	if attempted > 0 && succeeded == 0 {
		return domain.FetchResult{}, fmt.Errorf("fetch: %w: all %d sources failed extraction", domain.ErrExternalFatal, attempted)
	}

	return domain.FetchResult{
		FetchOutputDirPath: outDir,
		Category:           disc.Category,
		OriginalInput:      disc.OriginalInput,
		SourceCount:        succeeded,
	}, nil
}

func readSourcesArtifact(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sources []string
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}
