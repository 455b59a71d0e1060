// Package vectorstore wraps the Qdrant gRPC client as the concrete Vector
// Store adapter (spec §6.4), adapted from engine/semantic/store.go.
package vectorstore

// Record is a point ready to be upserted: a deterministic id, its
// embedding, and the payload spec §3.4 describes.
type Record struct {
	ID        string
	Embedding []float32
	Payload   map[string]any
}

// SearchResult is one hit from a similarity search.
type SearchResult struct {
	ID      string
	Score   float32
	Content string
	Source  string
	Meta    map[string]string
}

// Distance-by-provider dimension lookup, spec §4.7.1.
const (
	DimOpenAISmall = 1536
	DimOpenAILarge = 3072
	DimNomic       = 768
	DimGoogle      = 768
)

// ProviderDimension returns the known embedding dimension for a
// (provider, model) pair, or 0 if unrecognized.
func ProviderDimension(provider, model string) int {
	switch provider {
	case "openai":
		if model == "text-embedding-3-large" {
			return DimOpenAILarge
		}
		return DimOpenAISmall
	case "ollama":
		return DimNomic
	case "google":
		return DimGoogle
	default:
		return 0
	}
}
