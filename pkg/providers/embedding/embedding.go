// Package embedding defines the embedding provider contract (spec §6.4).
package embedding

import "context"

// Client turns text into a vector and advertises the vector size for a model.
type Client interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
	Dim(model string) int
}
