package synthesize

import (
	"fmt"
	"strings"
)

// contentCeiling caps the amount of source content sent to the LLM per
// file, per spec §4.6 step 2 ("~100,000-character content ceiling").
const contentCeiling = 100_000

// buildPrompt asks the model to summarize a single fetched file into a
// Markdown section.
func buildPrompt(filename, content string) string {
	if len(content) > contentCeiling {
		content = content[:contentCeiling]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following document (source: %s) as a single Markdown section.\n", filename)
	b.WriteString("Use a top-level heading naming the topic. Preserve any code blocks verbatim with their language fences. ")
	b.WriteString("Include a short FAQ subsection if the source content supports one. ")
	b.WriteString("Exclude navigation chrome, cookie banners, and repeated site boilerplate — keep only substantive content.\n\n")
	b.WriteString("--- DOCUMENT START ---\n")
	b.WriteString(content)
	b.WriteString("\n--- DOCUMENT END ---\n")
	return b.String()
}

// guideHeader builds the header prepended to the aggregated summary
// document, per spec §4.6 step 4.
func guideHeader(topic, provider, model string) string {
	return fmt.Sprintf("# LLMS Full Content for %s (Provider: %s, Model: %s)\n\n", topic, provider, model)
}

// sourceSeparator builds the per-file separator prepended to each summary.
func sourceSeparator(filename string) string {
	return fmt.Sprintf("--- Source File: %s ---\n\n", filename)
}
