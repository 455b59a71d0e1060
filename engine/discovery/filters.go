package discovery

import (
	"regexp"
	"strings"
)

// ignoreKeywords match against a lowercased URL path; any hit skips the link.
var ignoreKeywords = []string{
	"/blog/", "/careers/", "/legal/", "/privacy", "/terms",
	"/login", "/signup", "/pricing", "/changelog", "/press/",
}

// ignoreExtensions match a path suffix; any hit skips the link.
var ignoreExtensions = []string{
	".zip", ".tar", ".gz", ".exe", ".dmg", ".mp4", ".mp3", ".png", ".jpg",
	".jpeg", ".gif", ".svg", ".css", ".js", ".woff", ".woff2", ".ico",
}

// docKeywords match a path substring that marks it as documentation content,
// overriding the max_depth cutoff.
var docKeywords = []string{
	"/docs/", "/doc/", "/guide/", "/guides/", "/reference/", "/api/", "/manual/",
}

// nonEnglishLocale matches a leading English locale path segment ("/en" or
// "/en-xx"); shouldSkipPath skips a path with an anyLocalePrefix segment
// only when this does not match, so English locales are kept.
var nonEnglishLocale = regexp.MustCompile(`^/(?:(?:en|en-[a-z]{2})(?:/|$))`)
var anyLocalePrefix = regexp.MustCompile(`^/[a-z]{2}(?:-[a-z]{2})?(?:/|$)`)

// isDocPath reports whether path matches one of the doc keyword substrings.
func isDocPath(path string) bool {
	lower := strings.ToLower(path)
	for _, kw := range docKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// shouldSkipPath reports whether path should be dropped before enqueue,
// independent of depth.
func shouldSkipPath(path string) bool {
	lower := strings.ToLower(path)
	for _, kw := range ignoreKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, ext := range ignoreExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	if anyLocalePrefix.MatchString(lower) && !nonEnglishLocale.MatchString(lower) {
		return true
	}
	return false
}
