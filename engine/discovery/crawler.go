package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/engine/pipeline"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/providers/browser"
)

// pageNavigateTimeout bounds each crawl page fetch (spec §4.4.1: "navigates
// domContentLoaded, 30s timeout").
const pageNavigateTimeout = 30 * time.Second

// crawlLink is a pending URL at a given BFS depth.
type crawlLink struct {
	url   string
	depth int
}

// CrawlConfig controls the same-origin BFS crawl (spec §4.4.1).
type CrawlConfig struct {
	MaxDepth int
	MaxURLs  int
}

// ProgressFunc receives a human-readable progress line; the registry parses
// the trailing "N/total" fraction out of it.
type ProgressFunc func(string)

// Crawl runs the same-origin BFS crawler described in spec §4.4.1. It
// returns a sorted, deduplicated list of discovered URLs.
func Crawl(ctx context.Context, start string, cfg CrawlConfig, pool browser.Pool, limiter *governor.Limiter, checker pipeline.CancelChecker, taskID string, onProgress ProgressFunc, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	origin, err := url.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("discovery: parse start url: %w", err)
	}

	found := map[string]bool{start: true}
	visited := map[string]bool{start: true}
	currentLevel := []crawlLink{{url: start, depth: 0}}
	processed := 0

	for len(currentLevel) > 0 && len(found) < cfg.MaxURLs {
		if checker != nil && checker.IsCancelled(taskID) {
			return nil, domain.ErrCancelled
		}

		var (
			mu        sync.Mutex
			wg        sync.WaitGroup
			nextLevel []crawlLink
		)

		for _, link := range currentLevel {
			if len(found) >= cfg.MaxURLs {
				break
			}
			link := link
			if limiter != nil {
				if err := limiter.Acquire(ctx); err != nil {
					break
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter != nil {
					defer limiter.Release()
				}
				links, err := fetchLinks(ctx, pool, link.url)
				mu.Lock()
				defer mu.Unlock()
				processed++
				if err != nil {
					logger.Warn("discovery: page fetch failed", "url", link.url, "error", err)
					return
				}
				for _, next := range links {
					normalized, ok := normalizeLink(origin, link.url, next)
					if !ok || visited[normalized] {
						continue
					}
					visited[normalized] = true

					u, err := url.Parse(normalized)
					if err != nil || shouldSkipPath(u.Path) {
						continue
					}
					if link.depth+1 >= cfg.MaxDepth && !isDocPath(u.Path) {
						continue
					}
					if len(found) >= cfg.MaxURLs {
						continue
					}
					found[normalized] = true
					nextLevel = append(nextLevel, crawlLink{url: normalized, depth: link.depth + 1})
				}
			}()
		}
		wg.Wait()

		if onProgress != nil {
			onProgress(fmt.Sprintf("Crawling: Processed ~%d pages, Found %d/%d", processed, len(found), cfg.MaxURLs))
		}

		currentLevel = nextLevel
	}

	out := make([]string, 0, len(found))
	for u := range found {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func fetchLinks(ctx context.Context, pool browser.Pool, pageURL string) ([]string, error) {
	var hrefs []string
	err := pool.WithPage(ctx, func(page browser.Page) error {
		navCtx, cancel := context.WithTimeout(ctx, pageNavigateTimeout)
		defer cancel()
		if err := page.Navigate(navCtx, pageURL); err != nil {
			return err
		}
		html, err := page.HTML(navCtx)
		if err != nil {
			return err
		}
		hrefs = extractHrefs(html)
		return nil
	})
	return hrefs, err
}

// normalizeLink resolves href against base, drops fragment-only links and
// off-origin links, and returns the normalized absolute URL.
func normalizeLink(origin *url.URL, base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	resolved, err := baseURL.Parse(href)
	if err != nil {
		return "", false
	}
	resolved.Fragment = ""
	if resolved.Host != origin.Host {
		return "", false
	}
	normalized := resolved.String()
	normalized = strings.TrimSuffix(normalized, "#")
	return normalized, true
}
