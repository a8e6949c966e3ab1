package docgen

import (
	"regexp"
	"strings"
)

// The generation endpoint frequently wraps docstrings in markdown or RST
// artifacts. CleanDocstring strips them so stored results render cleanly in
// every output format.

var (
	rstRoleRe   = regexp.MustCompile(":\\w+:`([^`]+)`")
	codeFenceRe = regexp.MustCompile("(?s)```(?:\\w+)?\\n?(.*?)```")
	headingRe   = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	bulletRe    = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	spacesRe    = regexp.MustCompile(`[ \t]+`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// CleanDocstring normalizes a generated docstring: RST roles like
// :class:`Task` become Task, fenced code blocks are unwrapped, markdown
// headings, bullets, and emphasis markers are removed, and whitespace runs
// are collapsed.
func CleanDocstring(text string) string {
	if text == "" {
		return ""
	}
	s := rstRoleRe.ReplaceAllString(text, "$1")
	s = codeFenceRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("`", "", "*", "", "_", "", "#", "").Replace(s)
	s = spacesRe.ReplaceAllString(s, " ")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
