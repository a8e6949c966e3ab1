// Package render turns a stored documentation revision into the formats the
// API serves: Markdown, HTML, and PDF. Rendering happens at read time; the
// revision itself stores only the structured results.
package render

import (
	"fmt"
	"time"
	"unicode"

	"github.com/docforgehq/docforge/internal/model"
)

const timestampLayout = "2006-01-02 15:04 UTC"

// itemHeader builds the per-result heading, e.g. "Method: run (class Worker)".
func itemHeader(r model.DocstringResult) string {
	header := fmt.Sprintf("%s: %s", titleCase(string(r.Type)), r.Name)
	if r.ParentClass != "" {
		header += fmt.Sprintf(" (class %s)", r.ParentClass)
	}
	return header
}

func titleCase(s string) string {
	if s == "" {
		return "Item"
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
