package retrieval

import (
	"fmt"
	"strings"

	"github.com/bull/docrag/internal/collection"
)

// DefaultMaxContextChars bounds the assembled context passed to the model.
const DefaultMaxContextChars = 3000

const contextSeparator = "\n\n---\n\n"

const promptHeader = "You are a concise assistant. Use ONLY the CONTEXT snippets below to answer the QUESTION.\n\n"

const promptInstructions = "INSTRUCTIONS: Answer concisely in one paragraph. " +
	"Cite sources inline by bracket number (e.g. [1]). " +
	"Do not invent sources. If the answer is not supported by the context, " +
	"say 'I don't know based on the provided context.'"

// Context is the assembled retrieval context: the numbered snippets that go
// into the prompt and the matching citation lines shown to the user.
type Context struct {
	// Text is the separator-joined snippet block embedded in the prompt.
	Text string

	// Citations has one display line per included snippet, numbered the
	// same way the snippets are.
	Citations []string

	// Included is how many results made it into the budget.
	Included int
}

// BuildContext selects results in ranking order until adding another snippet
// would exceed maxChars. The overflowing snippet is cut to exactly fill the
// remaining budget and is the last one included. Numbering is 1-based over
// the included snippets.
func BuildContext(results []collection.SearchResult, maxChars int) Context {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var parts []string
	var citations []string
	total := 0
	for _, r := range results {
		txt := strings.TrimSpace(r.Text)
		runes := []rune(txt)
		last := false
		if total+len(runes) > maxChars {
			remaining := maxChars - total
			if remaining <= 0 {
				break
			}
			runes = runes[:remaining]
			txt = string(runes)
			last = true
		}
		total += len(runes)

		i := len(parts) + 1
		parts = append(parts, fmt.Sprintf("[%d] %s\n%s", i, sourceLine(r.Metadata), txt))
		citations = append(citations, citationLine(i, r))
		if last {
			break
		}
	}

	return Context{
		Text:      strings.Join(parts, contextSeparator),
		Citations: citations,
		Included:  len(parts),
	}
}

// BuildPrompt wraps the assembled context and question in the fixed
// instruction template.
func BuildPrompt(question string, ctx Context) string {
	return promptHeader +
		"CONTEXT:\n" + ctx.Text + "\n\n" +
		"QUESTION:\n" + question + "\n\n" +
		promptInstructions
}

func sourceLine(meta map[string]any) string {
	src := "unknown"
	if v, ok := meta["source"]; ok {
		src = fmt.Sprintf("%v", v)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s", src)
	if page, ok := meta["page"]; ok {
		fmt.Fprintf(&b, ", page=%v", page)
	}
	fmt.Fprintf(&b, " (chunk=%v)", meta["chunk"])
	return b.String()
}

func citationLine(i int, r collection.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] id=%d score=%.4f source=%v", i, r.ID, r.Score, r.Metadata["source"])
	if page, ok := r.Metadata["page"]; ok {
		fmt.Fprintf(&b, " page=%v", page)
	}
	fmt.Fprintf(&b, " chunk=%v", r.Metadata["chunk"])
	return b.String()
}
