// Package ollama provides an Ollama-backed embedding.Client and llm.Client,
// adapted from pkg/ollama/embed.go's HTTP-client-as-adapter idiom. The
// original implemented a generated mlpb.EmbedServiceClient gRPC interface;
// that generated package is not part of this module (see DESIGN.md), so
// this adapter implements the local embedding/llm interfaces instead.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

// Client talks to an Ollama server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client against baseURL (e.g. "http://localhost:11434").
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

type embedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements embedding.Client.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	body, _ := json.Marshal(embedReq{Model: model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result embedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}
	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// Dim implements embedding.Client.
func (c *Client) Dim(model string) int {
	return vectorstore.ProviderDimension("ollama", model)
}

type generateReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResp struct {
	Response string `json:"response"`
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	body, _ := json.Marshal(generateReq{Model: model, Prompt: prompt, Stream: false})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama complete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama complete: status %d", resp.StatusCode)
	}

	var result generateResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama complete decode: %w", err)
	}
	return result.Response, nil
}
