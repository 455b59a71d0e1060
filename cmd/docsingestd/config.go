package main

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all environment-based configuration, read once at process
// start, the same Config-struct-plus-envOr shape as the teacher's
// cmd/api/main.go and cmd/ingest/main.go.
type Config struct {
	Port string

	VectorStoreURL    string
	VectorStoreAPIKey string
	Collection        string

	EmbeddingProvider string
	EmbeddingModel    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
	OllamaModel   string
	GoogleAPIKey  string

	PipelineLLMProvider string
	PipelineLLMModel    string

	WebSearchAPIKey  string
	WebSearchBaseURL string

	BrowserPoolSize int
	LLMConcurrency  int
	QdrantBatchSize int

	TaskStorePath string
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		VectorStoreURL:    os.Getenv("VECTOR_STORE_URL"),
		VectorStoreAPIKey: os.Getenv("VECTOR_STORE_API_KEY"),
		Collection:        envOr("QDRANT_COLLECTION", "docsingest"),

		EmbeddingProvider: os.Getenv("EMBEDDING_PROVIDER"),
		EmbeddingModel:    os.Getenv("EMBEDDING_MODEL"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OllamaBaseURL: envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   envOr("OLLAMA_MODEL", "nomic-embed-text"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),

		PipelineLLMProvider: envOr("PIPELINE_LLM_PROVIDER", "gemini"),
		PipelineLLMModel:    os.Getenv("PIPELINE_LLM_MODEL"),

		WebSearchAPIKey:  os.Getenv("WEB_SEARCH_API_KEY"),
		WebSearchBaseURL: envOr("WEB_SEARCH_BASE_URL", "https://api.search.brave.com/res/v1/web/search"),

		BrowserPoolSize: clamp(envInt("BROWSER_POOL_SIZE", 5), 1, 50),
		LLMConcurrency:  clampMin(envInt("LLM_CONCURRENCY", 3), 1),
		QdrantBatchSize: clampMin(envInt("QDRANT_BATCH_SIZE", 100), 1),

		TaskStorePath: envOr("TASK_STORE_PATH", ".task_store.json"),
	}

	if cfg.VectorStoreURL == "" {
		return Config{}, fmt.Errorf("VECTOR_STORE_URL is required")
	}
	switch cfg.EmbeddingProvider {
	case "openai", "ollama", "google":
	default:
		return Config{}, fmt.Errorf("EMBEDDING_PROVIDER must be one of openai, ollama, google (got %q)", cfg.EmbeddingProvider)
	}
	switch cfg.PipelineLLMProvider {
	case "gemini", "ollama", "openrouter", "chutes":
	default:
		return Config{}, fmt.Errorf("PIPELINE_LLM_PROVIDER must be one of gemini, ollama, openrouter, chutes (got %q)", cfg.PipelineLLMProvider)
	}
	if cfg.WebSearchAPIKey == "" {
		return Config{}, fmt.Errorf("WEB_SEARCH_API_KEY is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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
