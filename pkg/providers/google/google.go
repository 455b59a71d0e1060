// Package google implements embedding.Client against Google's Generative
// Language embedding API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wessley-labs/docsingest/pkg/vectorstore"
)

// Client talks to Google's embedContent API.
type Client struct {
	apiKey string
	http   *http.Client
}

// New builds a Client.
func New(apiKey string) *Client {
	return &Client{apiKey: apiKey, http: &http.Client{}}
}

type embedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed implements embedding.Client.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	var reqBody embedRequest
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	body, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s", model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google embed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google embed: status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("google embed decode: %w", err)
	}
	return result.Embedding.Values, nil
}

// Dim implements embedding.Client.
func (c *Client) Dim(model string) int {
	return vectorstore.ProviderDimension("google", model)
}
