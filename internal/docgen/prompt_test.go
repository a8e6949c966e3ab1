package docgen

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/docforgehq/docforge/internal/model"
)

func TestBuildPromptFunction(t *testing.T) {
	p := BuildPrompt(model.Item{Name: "parse", Type: model.ItemFunction, Code: "def parse(): ..."})
	assert.True(t, strings.HasPrefix(p, "FUNCTION: parse\n"))
	assert.Contains(t, p, "```python\ndef parse(): ...\n```")
	assert.True(t, strings.HasSuffix(p, "Docstring:"))
}

func TestBuildPromptMethodNamesParentClass(t *testing.T) {
	p := BuildPrompt(model.Item{Name: "run", Type: model.ItemMethod, ParentClass: "Job", Code: "def run(self): ..."})
	assert.True(t, strings.HasPrefix(p, "METHOD: run (class Job)\n"))
}

func TestBuildPromptTruncatesLongCode(t *testing.T) {
	code := strings.Repeat("x", 5000)
	p := BuildPrompt(model.Item{Name: "big", Type: model.ItemClass, Code: code})
	assert.Contains(t, p, strings.Repeat("x", promptCodeLimit))
	assert.NotContains(t, p, strings.Repeat("x", promptCodeLimit+1))
	assert.True(t, strings.HasSuffix(p, "Docstring:"))
}

func TestBuildPromptTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the byte limit; the cut must back up to
	// the rune's start instead of splitting it.
	code := strings.Repeat("x", promptCodeLimit-1) + strings.Repeat("é", 50)
	p := BuildPrompt(model.Item{Name: "wide", Type: model.ItemFunction, Code: code})
	assert.True(t, utf8.ValidString(p))
	assert.Contains(t, p, strings.Repeat("x", promptCodeLimit-1))
	assert.NotContains(t, p, "é")

	// Same with a four-byte rune across the boundary.
	code = strings.Repeat("x", promptCodeLimit-2) + strings.Repeat("\U0001F40D", 10)
	p = BuildPrompt(model.Item{Name: "snake", Type: model.ItemFunction, Code: code})
	assert.True(t, utf8.ValidString(p))
	assert.NotContains(t, p, "\U0001F40D")
}
