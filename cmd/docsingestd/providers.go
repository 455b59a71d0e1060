package main

import (
	"context"
	"fmt"

	"github.com/wessley-labs/docsingest/pkg/providers/embedding"
	"github.com/wessley-labs/docsingest/pkg/providers/google"
	"github.com/wessley-labs/docsingest/pkg/providers/llm"
	"github.com/wessley-labs/docsingest/pkg/providers/ollama"
	"github.com/wessley-labs/docsingest/pkg/providers/openai"
	"github.com/wessley-labs/docsingest/pkg/providers/search"
	"github.com/wessley-labs/docsingest/pkg/providers/textgen"
	"github.com/wessley-labs/docsingest/pkg/providers/websearch"
	"github.com/wessley-labs/docsingest/pkg/resilience"
)

// buildEmbeddingClient selects the embedding provider named by
// cfg.EmbeddingProvider (spec §6.1), wrapping it in a circuit breaker so a
// string of provider failures fails fast instead of retrying forever.
func buildEmbeddingClient(cfg Config) (embedding.Client, string, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		model := cfg.EmbeddingModel
		if model == "" {
			model = "text-embedding-3-small"
		}
		return newBreakerEmbedding(openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)), model, nil
	case "ollama":
		model := cfg.EmbeddingModel
		if model == "" {
			model = cfg.OllamaModel
		}
		return newBreakerEmbedding(ollama.New(cfg.OllamaBaseURL)), model, nil
	case "google":
		model := cfg.EmbeddingModel
		if model == "" {
			model = "text-embedding-004"
		}
		return newBreakerEmbedding(google.New(cfg.GoogleAPIKey)), model, nil
	default:
		return nil, "", fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// buildLLMClient selects the pipeline LLM provider named by
// cfg.PipelineLLMProvider (spec §6.1).
func buildLLMClient(cfg Config) (llm.Client, string, error) {
	switch cfg.PipelineLLMProvider {
	case "gemini":
		model := cfg.PipelineLLMModel
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return newBreakerLLM(textgen.NewGemini(cfg.GoogleAPIKey)), model, nil
	case "ollama":
		model := cfg.PipelineLLMModel
		if model == "" {
			model = cfg.OllamaModel
		}
		return newBreakerLLM(ollama.New(cfg.OllamaBaseURL)), model, nil
	case "openrouter":
		model := cfg.PipelineLLMModel
		if model == "" {
			model = "openrouter/auto"
		}
		return newBreakerLLM(textgen.NewOpenRouter(cfg.GoogleAPIKey)), model, nil
	case "chutes":
		model := cfg.PipelineLLMModel
		if model == "" {
			model = "chutes/default"
		}
		return newBreakerLLM(textgen.NewChutes(cfg.GoogleAPIKey)), model, nil
	default:
		return nil, "", fmt.Errorf("unknown pipeline llm provider %q", cfg.PipelineLLMProvider)
	}
}

func buildSearchClient(cfg Config) search.Client {
	return newBreakerSearch(websearch.New(cfg.WebSearchBaseURL, cfg.WebSearchAPIKey))
}

// breakerLLM wraps an llm.Client with a circuit breaker (spec's domain-stack
// wiring for pkg/resilience.Breaker, §3): a string of provider failures
// trips the breaker so the retry helper above it fails fast with
// ErrCircuitOpen instead of retrying a provider that is already down.
type breakerLLM struct {
	inner llm.Client
	br    *resilience.Breaker
}

func newBreakerLLM(inner llm.Client) breakerLLM {
	return breakerLLM{inner: inner, br: resilience.NewBreaker(resilience.DefaultBreakerOpts)}
}

func (b breakerLLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	var out string
	err := b.br.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = b.inner.Complete(ctx, model, prompt)
		return callErr
	})
	return out, err
}

// breakerEmbedding wraps an embedding.Client with a circuit breaker.
type breakerEmbedding struct {
	inner embedding.Client
	br    *resilience.Breaker
}

func newBreakerEmbedding(inner embedding.Client) breakerEmbedding {
	return breakerEmbedding{inner: inner, br: resilience.NewBreaker(resilience.DefaultBreakerOpts)}
}

func (b breakerEmbedding) Embed(ctx context.Context, model, text string) ([]float32, error) {
	var out []float32
	err := b.br.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = b.inner.Embed(ctx, model, text)
		return callErr
	})
	return out, err
}

func (b breakerEmbedding) Dim(model string) int { return b.inner.Dim(model) }

// breakerSearch wraps a search.Client with a circuit breaker.
type breakerSearch struct {
	inner search.Client
	br    *resilience.Breaker
}

func newBreakerSearch(inner search.Client) breakerSearch {
	return breakerSearch{inner: inner, br: resilience.NewBreaker(resilience.DefaultBreakerOpts)}
}

func (b breakerSearch) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	var out []search.Result
	err := b.br.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = b.inner.Search(ctx, query, maxResults)
		return callErr
	})
	return out, err
}
