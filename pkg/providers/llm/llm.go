// Package llm defines the LLM provider contract (spec §6.4): a single
// text-in/text-out call, selected at construction from configuration
// (spec §9's "per-provider clients" design note).
package llm

import "context"

// Client completes a prompt against a specific model and returns text.
// Provider-specific errors are surfaced verbatim (spec §6.4).
type Client interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
