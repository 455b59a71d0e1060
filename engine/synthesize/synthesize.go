// Package synthesize implements the Synthesize Engine (spec §4.6):
// per-file LLM summarization under LLMCallLimiter, concatenated into one
// guide document.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/pkg/fn"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/providers/llm"
)

const outputDir = "data/synthesize_output"

// Engine runs the Synthesize stage end to end.
type Engine struct {
	LLM      llm.Client
	Provider string
	Model    string
	Limiter  *governor.Limiter
	Logger   *slog.Logger
}

// New builds a Synthesize Engine.
func New(client llm.Client, provider, model string, limiter *governor.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{LLM: client, Provider: provider, Model: model, Limiter: limiter, Logger: logger}
}

// fileSummary is the per-file call outcome tagged per spec §4.6 step 3.
type fileSummary struct {
	filename string
	summary  string
	err      error
}

// Run executes the Synthesize stage for req, reading Markdown files from
// the Fetch output directory.
func (e *Engine) Run(ctx context.Context, req domain.Request, fr domain.FetchResult, taskID string) (domain.SynthesizeResult, error) {
	if e.LLM == nil {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: %w: no LLM provider configured", domain.ErrMissingCredential)
	}

	files, err := listMarkdownFiles(fr.FetchOutputDirPath)
	if err != nil {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: list fetch output: %w", err)
	}
	if len(files) == 0 {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: %w: no markdown files in %s", domain.ErrContentEmpty, fr.FetchOutputDirPath)
	}

	maxCalls := req.MaxLLMCalls
	if maxCalls <= 0 {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: %w: max_llm_calls must be positive", domain.ErrInvalidRequest)
	}
	if maxCalls > len(files) {
		maxCalls = len(files)
	}
	files = files[:maxCalls]

	workers := len(files)
	if e.Limiter != nil && e.Limiter.Limit() < workers {
		workers = e.Limiter.Limit()
	}

	results := fn.ParMap(files, workers, func(path string) fileSummary {
		if e.Limiter != nil {
			if err := e.Limiter.Acquire(ctx); err != nil {
				return fileSummary{filename: filepath.Base(path), err: err}
			}
			defer e.Limiter.Release()
		}
		return e.summarizeFile(ctx, path)
	})

	var (
		successes  []fileSummary
		firstError error
	)
	for _, r := range results {
		if r.err != nil {
			e.Logger.Warn("synthesize: file summary failed", "file", r.filename, "error", r.err)
			if firstError == nil {
				firstError = r.err
			}
			continue
		}
		successes = append(successes, r)
	}

	if len(results) > 0 && len(successes) == 0 {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: %w: all %d file summaries failed: %w", domain.ErrExternalFatal, len(results), firstError)
	}

	sort.Slice(successes, func(i, j int) bool { return successes[i].filename < successes[j].filename })

	var doc strings.Builder
	doc.WriteString(guideHeader(fr.OriginalInput, e.Provider, e.Model))
	for _, s := range successes {
		doc.WriteString(sourceSeparator(s.filename))
		doc.WriteString(s.summary)
		doc.WriteString("\n\n")
	}

	path, err := writeSummaryArtifact(taskID, doc.String())
	if err != nil {
		return domain.SynthesizeResult{}, fmt.Errorf("synthesize: write artifact: %w", err)
	}

	return domain.SynthesizeResult{
		SummaryFilePath: path,
		Category:        fr.Category,
		OriginalInput:   fr.OriginalInput,
	}, nil
}

func (e *Engine) summarizeFile(ctx context.Context, path string) fileSummary {
	name := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return fileSummary{filename: name, err: fmt.Errorf("read %s: %w", path, err)}
	}
	prompt := buildPrompt(name, string(content))
	summary, err := e.LLM.Complete(ctx, e.Model, prompt)
	if err != nil {
		return fileSummary{filename: name, err: fmt.Errorf("llm complete for %s: %w", name, err)}
	}
	return fileSummary{filename: name, summary: summary}
}

func listMarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeSummaryArtifact(taskID, content string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, taskID+"-summary.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
