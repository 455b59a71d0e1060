package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"

	"github.com/wessley-labs/docsingest/pkg/providers/browser"
)

// pageNavigateTimeout bounds a web fetch (spec §4.5 step 3: "60s timeout").
const pageNavigateTimeout = 60 * time.Second

var (
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
	bodyRe          = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
)

// extractSource dispatches to the filesystem extractor when isLocal is set
// and to the web extractor otherwise.
func extractSource(ctx context.Context, source string, isLocal bool, pool browser.Pool) (string, error) {
	if isLocal {
		return extractLocal(source)
	}
	return extractWeb(ctx, pool, source)
}

// extractLocal implements spec §4.5 step 3's filesystem branch.
func extractLocal(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return extractMarkdown(path)
	case ".docx":
		return extractDocx(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}
}

// extractMarkdown renders Markdown to HTML then strips tags to text, per
// spec §4.5's "parse Markdown, render to HTML, strip to text".
func extractMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(data, &buf); err != nil {
		return "", fmt.Errorf("render markdown %s: %w", path, err)
	}
	return stripHTML(buf.String()), nil
}

// extractDocx uses a library-assisted .docx text extraction, per spec §4.5.
func extractDocx(path string) (string, error) {
	reader, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer reader.Close()
	return reader.Editable().GetContent(), nil
}

// extractWeb implements spec §4.5's web branch: navigate, grab HTML, strip
// to body text, collapse whitespace.
func extractWeb(ctx context.Context, pool browser.Pool, pageURL string) (string, error) {
	if pool == nil {
		return "", fmt.Errorf("fetch: no browser pool configured for web source %q", pageURL)
	}
	var html string
	err := pool.WithPage(ctx, func(page browser.Page) error {
		navCtx, cancel := context.WithTimeout(ctx, pageNavigateTimeout)
		defer cancel()
		if err := page.Navigate(navCtx, pageURL); err != nil {
			return err
		}
		var err error
		html, err = page.HTML(navCtx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("fetch web %s: %w", pageURL, err)
	}
	if m := bodyRe.FindStringSubmatch(html); m != nil {
		html = m[1]
	}
	return stripHTML(html), nil
}

// stripHTML removes tags and collapses whitespace to a single space, per
// spec §4.5 step 3.
func stripHTML(html string) string {
	text := htmlTagRe.ReplaceAllString(html, " ")
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
