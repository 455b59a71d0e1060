// Package websearch implements search.Client over a generic JSON search API,
// selected via WEB_SEARCH_API_KEY (spec §6.1).
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wessley-labs/docsingest/pkg/providers/search"
)

// Client talks to a search API returning {results: [{url: "..."}]}.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a Client against baseURL (a Brave/SerpAPI/Tavily-shaped
// endpoint works with this response shape).
func New(baseURL, apiKey string) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{}}
}

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// Search implements search.Client.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	u := fmt.Sprintf("%s?q=%s&count=%d", c.baseURL, url.QueryEscape(query), maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("websearch decode: %w", err)
	}

	out := make([]search.Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if len(out) >= maxResults {
			break
		}
		out = append(out, search.Result{URL: r.URL})
	}
	return out, nil
}
