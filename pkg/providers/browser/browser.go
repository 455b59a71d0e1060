// Package browser defines the browser-automation adapter contract (spec
// §6.4): a page is opened under the page limiter, used, and always closed.
package browser

import "context"

// Page is an open browser page/tab.
type Page interface {
	// Navigate loads url, waiting up to timeout for domContentLoaded.
	Navigate(ctx context.Context, url string) error
	// HTML returns the page's current HTML content.
	HTML(ctx context.Context) (string, error)
}

// Pool opens pages under its own concurrency limiter, closing each page
// after fn returns.
type Pool interface {
	WithPage(ctx context.Context, fn func(Page) error) error
}
