// Package textgen implements llm.Client for the OpenAI-chat-compatible
// PIPELINE_LLM_PROVIDER variants (openrouter, chutes) plus Gemini's own
// wire format, following the single HTTP-client-as-adapter idiom from
// pkg/providers/ollama (itself adapted from pkg/ollama/embed.go).
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAICompatClient talks to any OpenAI-chat-completions-compatible
// endpoint (OpenRouter, Chutes) with a bearer token.
type OpenAICompatClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewOpenRouter builds a client against OpenRouter's API.
func NewOpenRouter(apiKey string) *OpenAICompatClient {
	return &OpenAICompatClient{baseURL: "https://openrouter.ai/api/v1", apiKey: apiKey, http: &http.Client{}}
}

// NewChutes builds a client against Chutes' API.
func NewChutes(apiKey string) *OpenAICompatClient {
	return &OpenAICompatClient{baseURL: "https://llm.chutes.ai/v1", apiKey: apiKey, http: &http.Client{}}
}

// NewOpenAICompat builds a client against an arbitrary OpenAI-compatible
// base URL, used by tests and by any future provider sharing this wire shape.
func NewOpenAICompat(baseURL, apiKey string) *OpenAICompatClient {
	return &OpenAICompatClient{baseURL: baseURL, apiKey: apiKey, http: &http.Client{}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements llm.Client.
func (c *OpenAICompatClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("textgen: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("textgen decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("textgen: %s", msg)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("textgen: empty response")
	}
	return result.Choices[0].Message.Content, nil
}

// GeminiClient talks to Google's Generative Language API.
type GeminiClient struct {
	apiKey string
	http   *http.Client
}

// NewGemini builds a Gemini client.
func NewGemini(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, http: &http.Client{}}
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete implements llm.Client.
func (c *GeminiClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, c.apiKey)
	body, _ := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gemini decode: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
