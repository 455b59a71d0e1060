// Package search defines the web-search provider contract (spec §6.4).
package search

import "context"

// Result is a single search hit.
type Result struct {
	URL string
}

// Client searches the web for a query, returning up to maxResults hits.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
