// Package openai implements embedding.Client against OpenAI's embeddings API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

// Client talks to OpenAI (or an OPENAI_BASE_URL-compatible endpoint).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a Client. baseURL defaults to OpenAI's API if empty.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{}}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed implements embedding.Client.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	body, _ := json.Marshal(embedRequest{Model: model, Input: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	defer resp.Body.Close()

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai embed decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("openai embed: %s", msg)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}
	return result.Data[0].Embedding, nil
}

// Dim implements embedding.Client.
func (c *Client) Dim(model string) int {
	return vectorstore.ProviderDimension("openai", model)
}
