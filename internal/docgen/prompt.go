package docgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docforgehq/docforge/internal/model"
)

// promptCodeLimit bounds the code snippet embedded in a prompt so one item
// cannot blow the downstream model's input-token ceiling.
const promptCodeLimit = 800

// BuildPrompt renders the generation prompt for one item: a short typed
// header, the (possibly truncated) code in a fence, and a fixed cue for the
// model to complete.
func BuildPrompt(it model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", strings.ToUpper(string(it.Type)), it.Name)
	if it.Type == model.ItemMethod && it.ParentClass != "" {
		fmt.Fprintf(&b, " (class %s)", it.ParentClass)
	}
	b.WriteString("\n```python\n")
	code := it.Code
	if len(code) > promptCodeLimit {
		// Back up to a rune boundary so the cut never leaves a partial
		// UTF-8 sequence in the prompt.
		cut := promptCodeLimit
		for cut > 0 && !utf8.RuneStart(code[cut]) {
			cut--
		}
		code = code[:cut]
	}
	b.WriteString(code)
	b.WriteString("\n```\nDocstring:")
	return b.String()
}
