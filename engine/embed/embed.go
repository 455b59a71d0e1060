// Package embed implements the Embed Engine (spec §4.7, §4.7.1): chunking,
// embedding, and batched upsert into the vector store.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/engine/pipeline"
	"github.com/wessley-labs/docsingest/pkg/fn"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/providers/embedding"
	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

// errLockBusy is the retriable error reported while EmbedLock is held by
// another task's pipeline.
var errLockBusy = errors.New("lock busy")

// ProgressFunc receives a human-readable progress line.
type ProgressFunc func(string)

// Engine runs the Embed stage end to end.
type Engine struct {
	Store    *vectorstore.Store
	Embedder embedding.Client
	Model    string
	Governor *governor.Governor
	Logger   *slog.Logger
}

// New builds an Embed Engine.
func New(store *vectorstore.Store, embedder embedding.Client, model string, gov *governor.Governor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Store: store, Embedder: embedder, Model: model, Governor: gov, Logger: logger}
}

// Run executes the Embed stage for sr, the Synthesize artifact.
func (e *Engine) Run(ctx context.Context, sr domain.SynthesizeResult, taskID string, checker pipeline.CancelChecker, onProgress ProgressFunc) (int, error) {
	if err := e.acquireLock(ctx, checker, taskID); err != nil {
		return 0, err
	}
	defer e.Governor.Embed.Release()

	if err := ensureCollection(ctx, e.Store, e.Embedder, e.Model); err != nil {
		return 0, fmt.Errorf("embed: ensure collection: %w", err)
	}

	text, err := os.ReadFile(sr.SummaryFilePath)
	if err != nil {
		return 0, fmt.Errorf("embed: read summary: %w", err)
	}

	chunks := chunkText(string(text), DefaultChunkSize, DefaultOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("embed: %w: summary file produced no chunks", domain.ErrContentEmpty)
	}

	records := e.embedChunks(ctx, chunks, sr)
	if len(records) == 0 {
		return 0, fmt.Errorf("embed: %w: every chunk failed to embed", domain.ErrExternalFatal)
	}

	batchSize := e.Governor.QdrantBatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	upserted := 0
	for start := 0; start < len(records); start += batchSize {
		if checker != nil && checker.IsCancelled(taskID) {
			return upserted, domain.ErrCancelled
		}
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := e.Store.Upsert(ctx, batch); err != nil {
			return upserted, fmt.Errorf("embed: upsert batch: %w", err)
		}
		upserted += len(batch)
	}

	if onProgress != nil {
		onProgress(fmt.Sprintf("Embed Stage: Upsert complete for %d points.", upserted))
	}
	return upserted, nil
}

// acquireLock implements spec §4.7 step 1: acquire EmbedLock via the retry
// helper, with failure-to-acquire treated as retriable.
func (e *Engine) acquireLock(ctx context.Context, checker pipeline.CancelChecker, taskID string) error {
	opts := pipeline.DefaultRetryOpts
	opts.Description = "acquire EmbedLock"
	opts.TaskID = taskID
	result := pipeline.Retry(ctx, checker, opts, func(context.Context) fn.Result[struct{}] {
		if e.Governor.Embed.TryAcquire() {
			return fn.Ok(struct{}{})
		}
		return fn.Err[struct{}](fmt.Errorf("embed: %w: EmbedLock held", errLockBusy))
	})
	_, err := result.Unwrap()
	return err
}

func (e *Engine) embedChunks(ctx context.Context, chunks []string, sr domain.SynthesizeResult) []vectorstore.Record {
	records := make([]vectorstore.Record, 0, len(chunks))
	for i, raw := range chunks {
		clean := sanitizeChunk(raw)
		if clean == "" {
			continue
		}
		vector, err := e.Embedder.Embed(ctx, e.Model, clean)
		if err != nil {
			e.Logger.Warn("embed: chunk embedding failed", "index", i, "error", err)
			continue
		}
		id := pointID(sr.OriginalInput, i)
		records = append(records, vectorstore.Record{
			ID:        id,
			Embedding: vector,
			Payload: map[string]any{
				"text":        clean,
				"source":      sr.OriginalInput,
				"chunk_index": i,
				"category":    sr.Category,
			},
		})
	}
	return records
}

// pointID builds the deterministic UUIDv5 point id (spec §8 invariant 7),
// grounded directly on engine/ingest/ingest.go's uuid.NewSHA1 line.
func pointID(source string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, index))).String()
}
