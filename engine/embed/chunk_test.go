package embed

import (
	"strings"
	"testing"
)

func TestChunkText_Basic(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := chunkText(text, 1000, 100)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk exceeds size: %d", len(c))
		}
	}
}

func TestChunkText_SafetyRuleChunkLEOverlap(t *testing.T) {
	chunks := chunkText("hello world", 100, 100)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Fatalf("got %v, want single chunk", chunks)
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	if chunks := chunkText("   ", 1000, 100); chunks != nil {
		t.Fatalf("got %v, want nil", chunks)
	}
}

func TestChunkText_DropsEmptyTrims(t *testing.T) {
	chunks := chunkText("short", 1000, 100)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("got %v", chunks)
	}
}

func TestSanitizeChunk_StripsDisallowed(t *testing.T) {
	got := sanitizeChunk("hello ☃ world \x00")
	if strings.ContainsRune(got, '☃') {
		t.Fatalf("sanitizeChunk left disallowed rune: %q", got)
	}
}
