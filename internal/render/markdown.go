package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/docforgehq/docforge/internal/model"
)

// Markdown renders revision results as a Markdown document with one section
// per symbol: a fenced code block for the original code followed by the
// generated docstring.
func Markdown(projectID string, results []model.DocstringResult, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Project %s - Generated Documentation\n\n", projectID)
	fmt.Fprintf(&b, "_Generated at: %s_\n\n", formatTimestamp(generatedAt))

	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n", itemHeader(r))
		if code := strings.TrimSpace(r.OriginalCode); code != "" {
			fmt.Fprintf(&b, "```python\n%s\n```\n\n", code)
		}
		if doc := strings.TrimSpace(r.GeneratedDocstring); doc != "" {
			fmt.Fprintf(&b, "**Docstring:**\n\n%s\n\n", doc)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
