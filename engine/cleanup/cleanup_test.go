package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wessley-labs/docsingest/engine/domain"
)

func TestRun_RemovesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	sourcesFile := filepath.Join(dir, "sources.json")
	fetchDir := filepath.Join(dir, "fetch_output")
	summaryFile := filepath.Join(dir, "summary.md")

	if err := os.WriteFile(sourcesFile, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(fetchDir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fetchDir, "nested", "a.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(summaryFile, []byte("summary"), 0o644); err != nil {
		t.Fatal(err)
	}

	Run(
		domain.DiscoveryResult{SourcesFilePath: sourcesFile},
		domain.FetchResult{FetchOutputDirPath: fetchDir},
		domain.SynthesizeResult{SummaryFilePath: summaryFile},
		nil,
	)

	for _, p := range []string{sourcesFile, fetchDir, summaryFile} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s removed, stat err=%v", p, err)
		}
	}
}

func TestRun_ToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	Run(
		domain.DiscoveryResult{SourcesFilePath: filepath.Join(dir, "missing-sources.json")},
		domain.FetchResult{FetchOutputDirPath: filepath.Join(dir, "missing-output")},
		domain.SynthesizeResult{SummaryFilePath: filepath.Join(dir, "missing-summary.md")},
		nil,
	)
}

func TestRun_EmptyPathsAreNoOps(t *testing.T) {
	Run(domain.DiscoveryResult{}, domain.FetchResult{}, domain.SynthesizeResult{}, nil)
}
