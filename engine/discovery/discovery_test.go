package discovery

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/wessley-labs/docsingest/engine/domain"
)

func TestEngine_Run_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.png"), []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldwd, _ := os.Getwd()
	work := t.TempDir()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldwd)

	e := New(nil, nil, nil, nil)
	req := domain.Request{Category: "notes", TopicOrURL: dir}
	result, err := e.Run(context.Background(), req, "task-1", nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.IsSourceLocal {
		t.Fatal("expected IsSourceLocal = true")
	}
	if result.Category != "notes" {
		t.Fatalf("got category %q", result.Category)
	}

	data, err := os.ReadFile(result.SourcesFilePath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var sources []string
	if err := json.Unmarshal(data, &sources); err != nil {
		t.Fatalf("unmarshal artifact: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2: %v", len(sources), sources)
	}
}

func TestEngine_Run_MissingTopic(t *testing.T) {
	e := New(nil, nil, nil, nil)
	_, err := e.Run(context.Background(), domain.Request{Category: "notes"}, "task-2", nil, nil)
	if err == nil {
		t.Fatal("expected error for empty topic_or_url")
	}
}
