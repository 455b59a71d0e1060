package discovery

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/wessley-labs/docsingest/pkg/providers/search"
)

// StartPoint is the normalized result of resolving a task's topic_or_url
// input into something the crawler/enumerator can consume.
type StartPoint struct {
	Location string
	IsLocal  bool
}

// Normalize implements spec §4.4 step 1-2: parse as URL, else filesystem,
// else topic search.
func Normalize(ctx context.Context, input string, searcher search.Client) (StartPoint, error) {
	if u, err := url.Parse(input); err == nil && u.Scheme != "" && u.Host != "" {
		return StartPoint{Location: input, IsLocal: false}, nil
	}

	if _, err := os.Stat(input); err == nil {
		return StartPoint{Location: input, IsLocal: true}, nil
	}

	if searcher == nil {
		return StartPoint{}, fmt.Errorf("discovery: %q is not a URL or existing path, and no search provider is configured", input)
	}

	results, err := searcher.Search(ctx, fmt.Sprintf("%s documentation main page", input), 3)
	if err != nil {
		return StartPoint{}, fmt.Errorf("discovery: topic search: %w", err)
	}
	if len(results) == 0 {
		return StartPoint{}, fmt.Errorf("discovery: topic search for %q returned no results", input)
	}

	best := pickDocResult(results)
	return StartPoint{Location: best, IsLocal: false}, nil
}

// pickDocResult implements spec §4.4 step 2: prefer the shortest URL whose
// path matches /docs, else the shortest URL overall.
func pickDocResult(results []search.Result) string {
	docs := make([]string, 0, len(results))
	all := make([]string, 0, len(results))
	for _, r := range results {
		all = append(all, r.URL)
		if u, err := url.Parse(r.URL); err == nil && strings.Contains(u.Path, "/docs") {
			docs = append(docs, r.URL)
		}
	}
	candidates := docs
	if len(candidates) == 0 {
		candidates = all
	}
	sort.Slice(candidates, func(i, j int) bool { return len(candidates[i]) < len(candidates[j]) })
	return candidates[0]
}
