// Package governor implements the Resource Governor: mutually exclusive
// stage locks and bounded-concurrency limiters shared across all tasks.
package governor

import (
	"context"
	"os"
	"strconv"
	"sync/atomic"
)

// StageLock is a boolean mutex serializing one stage across all tasks.
type StageLock struct {
	held atomic.Bool
}

// TryAcquire attempts to take the lock, returning false if already held.
func (l *StageLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Safe to call even if not held.
func (l *StageLock) Release() {
	l.held.Store(false)
}

// Limiter is a bounded counting semaphore capping concurrent in-flight
// operations of one kind. It is a buffered-channel semaphore, the same
// make(chan struct{}, n) idiom cmd/scraper-sources/manuals/crawler.go and
// pkg/fn/parallel.go use for worker pools, rather than a rate-over-time
// limiter (see pkg/resilience.Limiter for that instead, which paces
// external calls over time rather than capping concurrency).
type Limiter struct {
	slots chan struct{}
	n     int
}

// NewLimiter creates a Limiter allowing up to n concurrent holders.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n), n: n}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to take a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot. Safe to call even if no slot is held, though
// callers must pair every successful Acquire/TryAcquire with exactly one
// Release.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// Limit returns the configured concurrency cap.
func (l *Limiter) Limit() int { return l.n }

// InUse returns the number of slots currently held, for saturation metrics.
func (l *Limiter) InUse() int { return len(l.slots) }

// Governor holds the three stage locks and three tunables from spec §4.2.
type Governor struct {
	BrowserActivity *StageLock
	Synthesize      *StageLock
	Embed           *StageLock

	BrowserPageLimiter *Limiter
	LLMCallLimiter     *Limiter
	QdrantBatchSize    int
}

// New builds a Governor reading BROWSER_POOL_SIZE, LLM_CONCURRENCY, and
// QDRANT_BATCH_SIZE from the environment with spec-mandated defaults and
// clamps, per spec §4.2/§6.1.
func New() *Governor {
	browserPool := clamp(envInt("BROWSER_POOL_SIZE", 5), 1, 50)
	llmConcurrency := clampMin(envInt("LLM_CONCURRENCY", 3), 1)
	qdrantBatch := clampMin(envInt("QDRANT_BATCH_SIZE", 100), 1)

	return &Governor{
		BrowserActivity:    &StageLock{},
		Synthesize:         &StageLock{},
		Embed:              &StageLock{},
		BrowserPageLimiter: NewLimiter(browserPool),
		LLMCallLimiter:     NewLimiter(llmConcurrency),
		QdrantBatchSize:    qdrantBatch,
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampMin(n, lo int) int {
	if n < lo {
		return lo
	}
	return n
}
