// Package cleanup implements the Cleanup stage (spec §4.8): best-effort
// deletion of the Discovery, Fetch, and Synthesize artifacts once a task has
// completed through Embed.
package cleanup

import (
	"log/slog"
	"os"

	"github.com/wessley-labs/docsingest/engine/domain"
)

// Run deletes dr's sources file, fr's output directory, and sr's summary
// file. Each deletion is independent: a missing file is tolerated, any
// other error is logged but never returned, matching spec §4.8's rule that
// Cleanup failures never change the task's terminal status.
func Run(dr domain.DiscoveryResult, fr domain.FetchResult, sr domain.SynthesizeResult, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	removeFile(logger, "discovery sources file", dr.SourcesFilePath)
	removeDir(logger, "fetch output directory", fr.FetchOutputDirPath)
	removeFile(logger, "synthesize summary file", sr.SummaryFilePath)
}

func removeFile(logger *slog.Logger, label, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("cleanup: failed to remove artifact", "artifact", label, "path", path, "error", err)
	}
}

func removeDir(logger *slog.Logger, label, path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("cleanup: failed to remove artifact", "artifact", label, "path", path, "error", err)
	}
}
