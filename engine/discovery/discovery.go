// Package discovery implements the Discovery Engine (spec §4.4): resolving
// a task's starting input into a normalized source list, written to the
// Discovery artifact on disk.
package discovery

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
	"github.com/wessley-labs/docsingest/pkg/providers/search"
)

const (
	// defaultCrawlDepth and defaultMaxURLs apply when a Request leaves the
	// corresponding tunable unset (zero value).
	defaultCrawlDepth = 2
	defaultMaxURLs    = 50

	outputDir = "data/discovery_output"
)

// Engine runs the Discovery stage end to end: normalize, crawl/enumerate,
// write the sources artifact.
type Engine struct {
	Searcher search.Client
	Browser  browser.Pool
	Limiter  *governor.Limiter
	Logger   *slog.Logger
}

// New builds a Discovery Engine.
func New(searcher search.Client, pool browser.Pool, limiter *governor.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Searcher: searcher, Browser: pool, Limiter: limiter, Logger: logger}
}

// Run executes the Discovery stage for req, returning its typed result and
// writing the sources artifact to disk.
func (e *Engine) Run(ctx context.Context, req domain.Request, taskID string, checker pipeline.CancelChecker, onProgress ProgressFunc) (domain.DiscoveryResult, error) {
	if req.TopicOrURL == "" {
		return domain.DiscoveryResult{}, fmt.Errorf("discovery: %w: topic_or_url is required", domain.ErrInvalidRequest)
	}

	start, err := Normalize(ctx, req.TopicOrURL, e.Searcher)
	if err != nil {
		return domain.DiscoveryResult{}, err
	}

	maxURLs := req.MaxURLs
	if maxURLs <= 0 {
		maxURLs = defaultMaxURLs
	}

	var sources []string
	if start.IsLocal {
		sources, err = EnumerateLocal(start.Location, maxURLs)
		if err != nil {
			return domain.DiscoveryResult{}, fmt.Errorf("discovery: enumerate local: %w", err)
		}
	} else {
		depth := req.CrawlDepth
		if depth <= 0 {
			depth = defaultCrawlDepth
		}
		cfg := CrawlConfig{MaxDepth: depth, MaxURLs: maxURLs}
		sources, err = Crawl(ctx, start.Location, cfg, e.Browser, e.Limiter, checker, taskID, onProgress, e.Logger)
		if err != nil {
			return domain.DiscoveryResult{}, fmt.Errorf("discovery: crawl: %w", err)
		}
	}

	if len(sources) == 0 {
		return domain.DiscoveryResult{}, fmt.Errorf("discovery: %w: no sources found for %q", domain.ErrContentEmpty, req.TopicOrURL)
	}

	path, err := writeSourcesArtifact(taskID, sources)
	if err != nil {
		return domain.DiscoveryResult{}, fmt.Errorf("discovery: write artifact: %w", err)
	}

	return domain.DiscoveryResult{
		SourcesFilePath: path,
		Category:        req.Category,
		IsSourceLocal:   start.IsLocal,
		OriginalInput:   req.TopicOrURL,
	}, nil
}

func writeSourcesArtifact(taskID string, sources []string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, taskID+"-sources.json")
	data, err := json.Marshal(sources)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
