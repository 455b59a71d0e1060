package governor

import (
	"context"
	"testing"
	"time"
)

func TestStageLock_MutualExclusion(t *testing.T) {
	var l StageLock
	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLimiter_CapsConcurrency(t *testing.T) {
	lim := NewLimiter(2)
	if !lim.TryAcquire() || !lim.TryAcquire() {
		t.Fatal("expected first two acquires to succeed")
	}
	if lim.TryAcquire() {
		t.Fatal("expected third acquire to fail, limiter is at capacity")
	}
}

func TestLimiter_Release_FreesSlot(t *testing.T) {
	lim := NewLimiter(1)
	if !lim.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if lim.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}
	lim.Release()
	if !lim.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLimiter_Acquire_RespectsContext(t *testing.T) {
	lim := NewLimiter(1)
	lim.TryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := lim.Acquire(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestNew_ClampsDefaults(t *testing.T) {
	g := New()
	if g.BrowserPageLimiter.Limit() < 1 || g.BrowserPageLimiter.Limit() > 50 {
		t.Fatalf("BrowserPageLimiter out of clamp range: %d", g.BrowserPageLimiter.Limit())
	}
	if g.LLMCallLimiter.Limit() < 1 {
		t.Fatalf("LLMCallLimiter below minimum: %d", g.LLMCallLimiter.Limit())
	}
	if g.QdrantBatchSize < 1 {
		t.Fatalf("QdrantBatchSize below minimum: %d", g.QdrantBatchSize)
	}
}

func TestClamp(t *testing.T) {
	if clamp(100, 1, 50) != 50 {
		t.Fatal("expected clamp to cap at max")
	}
	if clamp(0, 1, 50) != 1 {
		t.Fatal("expected clamp to floor at min")
	}
}
