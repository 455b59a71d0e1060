package embed

import (
	"context"
	"fmt"

	"github.com/wessley-labs/docsingest/pkg/providers/embedding"
	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

// ensureCollection implements spec §4.7.1: create the collection on first
// use, recreate it if the embedding provider's dimension no longer matches.
func ensureCollection(ctx context.Context, store *vectorstore.Store, embedder embedding.Client, model string) error {
	dim := embedder.Dim(model)
	if dim <= 0 {
		return fmt.Errorf("embed: provider reported non-positive dimension %d for model %q", dim, model)
	}
	return store.EnsureCollection(ctx, dim)
}
