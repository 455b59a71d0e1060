package domain

import (
	"fmt"
	"regexp"
)

// progressFractionRe matches the "X/Y" progress hint embedded in a details
// string, used by the Task Registry to derive ProgressCurrent/ProgressTotal.
var progressFractionRe = regexp.MustCompile(`(\d+)/(\d+)`)

// ParseProgressFraction extracts the first "current/total" pair found in s.
// ok is false if no such substring exists.
func ParseProgressFraction(s string) (current, total int, ok bool) {
	m := progressFractionRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	c, err1 := parseNonNegInt(m[1])
	t, err2 := parseNonNegInt(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return c, t, true
}

func parseNonNegInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidRequest
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// EmbeddingProviders are the recognized EMBEDDING_PROVIDER values.
var EmbeddingProviders = map[string]bool{
	"openai": true, "ollama": true, "google": true,
}

// PipelineLLMProviders are the recognized PIPELINE_LLM_PROVIDER values.
var PipelineLLMProviders = map[string]bool{
	"gemini": true, "ollama": true, "openrouter": true, "chutes": true,
}

// ValidateProvider checks v against the given recognized set, returning a
// ValidationError classified as invalid-request on mismatch.
func ValidateProvider(field, v string, recognized map[string]bool) error {
	if !recognized[v] {
		return NewValidationError(field, v, fmt.Errorf("%w: %w", ErrUnknownProvider, ErrInvalidRequest))
	}
	return nil
}
