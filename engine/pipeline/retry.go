// Package pipeline holds the orchestrator-wide Retry Helper: a
// cancellation-aware, error-classifying wrapper adapted from pkg/fn.Retry's
// exponential backoff math (spec §4.3).
package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/pkg/fn"
)

// CancelChecker reports whether a task has been flagged cancelled. The Task
// Registry implements this.
type CancelChecker interface {
	IsCancelled(taskID string) bool
}

// RetryOpts configures the Retry Helper. Defaults mirror spec §4.3.
type RetryOpts struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Description  string
	// TaskID is optional; when empty, cancellation is never checked.
	TaskID string
}

// DefaultRetryOpts are spec §4.3's defaults.
var DefaultRetryOpts = RetryOpts{MaxAttempts: 3, InitialDelay: time.Second}

// Retry wraps op with exponential backoff + jitter, cancellation checks
// before each attempt, and error classification: a cancellation or
// domain.ErrInvalidRequest is non-retriable and propagates unchanged.
func Retry[T any](ctx context.Context, checker CancelChecker, opts RetryOpts, op func(context.Context) fn.Result[T]) fn.Result[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRetryOpts.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultRetryOpts.InitialDelay
	}

	wait := opts.InitialDelay
	var last fn.Result[T]

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if opts.TaskID != "" && checker != nil && checker.IsCancelled(opts.TaskID) {
			return fn.Err[T](domain.ErrCancelled)
		}

		last = op(ctx)
		if last.IsOk() {
			return last
		}

		_, err := last.Unwrap()
		if !domain.IsRetriable(err) {
			return last
		}
		if attempt == opts.MaxAttempts {
			break
		}

		sleepDur := time.Duration(float64(wait) * (1 + rand.Float64()*0.2))
		select {
		case <-ctx.Done():
			return fn.Err[T](ctx.Err())
		case <-time.After(sleepDur):
		}
		wait *= 2
	}
	return last
}
