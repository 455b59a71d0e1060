package embed

import (
	"regexp"
	"strings"
)

// DefaultChunkSize and DefaultOverlap are the char-stride chunking
// defaults (spec §4.7 step 4), generalized from
// engine/ingest/transform.go's token-based DefaultChunkSize/DefaultOverlap
// to a plain character count.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// chunkText splits text into overlapping character windows. stride =
// chunk - overlap; if chunk <= overlap, the whole input is returned as a
// single chunk to avoid looping forever.
func chunkText(text string, chunk, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunk <= overlap {
		return []string{text}
	}

	stride := chunk - overlap
	var out []string
	for start := 0; start < len(text); start += stride {
		end := start + chunk
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(text) {
			break
		}
	}
	return out
}

// sanitizeAllowed keeps the character set spec §4.7 step 5 names and drops
// everything else.
var sanitizeAllowed = regexp.MustCompile("[^a-zA-Z0-9 \t\n\r.,;:!?@#$%^&*()_+\\-=\\[\\]{}|'\"<>/`~]")

// sanitizeChunk strips characters outside the allowed set before a chunk is
// sent to the embedding provider.
func sanitizeChunk(s string) string {
	return sanitizeAllowed.ReplaceAllString(s, "")
}
