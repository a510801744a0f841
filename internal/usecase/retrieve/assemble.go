package retrieve

import (
	"strings"

	"github.com/gutwell/ragcore/internal/domain/retrieval"
)

// NoContextFound is returned as the assembled context when nothing
// passes the relevance filter.
const NoContextFound = "No relevant information found in the knowledge base."

const contextPreamble = "Relevant scientific and expert information:\n\n"

// assembleContext renders selected chunks into a prompt-ready block with
// source attribution, stopping before the character budget is exceeded.
// The budget covers the citation blocks only, not the preamble. Chunks
// arrive in relevance order, so the cut drops the least relevant.
func assembleContext(results []retrieval.Result, maxChars int) string {
	if len(results) == 0 {
		return NoContextFound
	}

	var b strings.Builder
	b.WriteString(contextPreamble)

	used := 0
	for _, res := range results {
		block := citationBlock(res)
		if used+len(block) > maxChars {
			break
		}
		b.WriteString(block)
		used += len(block)
	}

	if used == 0 {
		return NoContextFound
	}
	return b.String()
}

func citationBlock(res retrieval.Result) string {
	meta := res.Meta()
	return "Source: " + orUnknown(meta.Title) +
		" by " + orUnknown(meta.Author) +
		" (" + orUnknown(meta.Source) + ")\n" +
		res.Content() + "\n---\n"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
