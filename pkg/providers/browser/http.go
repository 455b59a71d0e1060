package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpPage adapts a single HTTP GET response to the Page interface: no
// script execution, just the response body as "rendered" HTML, matching
// cmd/scraper-sources/manuals/crawler.go's plain-http.Client crawling idiom
// rather than a headless-browser-automation library (none appears anywhere
// in the retrieval pack's go.mod files).
type httpPage struct {
	client *http.Client
	html   string
}

func (p *httpPage) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("browser: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("browser: navigate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("browser: navigate: status %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return fmt.Errorf("browser: read body: %w", err)
	}
	p.html = string(body)
	return nil
}

func (p *httpPage) HTML(_ context.Context) (string, error) {
	return p.html, nil
}

// maxPageBytes bounds how much of a single page is read into memory.
const maxPageBytes = 10 << 20

// HTTPPool is a browser.Pool backed by a plain net/http.Client: it has no
// document object model and runs no scripts, so it only serves well-formed
// server-rendered HTML, which is what Discovery's same-origin crawl and
// Fetch's page extraction both need.
type HTTPPool struct {
	client *http.Client
}

// NewHTTPPool builds an HTTPPool with the given per-request timeout.
func NewHTTPPool(timeout time.Duration) *HTTPPool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPool{client: &http.Client{Timeout: timeout}}
}

// WithPage implements browser.Pool: each call gets its own httpPage, no
// cleanup beyond the response body close already done in Navigate.
func (p *HTTPPool) WithPage(_ context.Context, fn func(Page) error) error {
	return fn(&httpPage{client: p.client})
}
