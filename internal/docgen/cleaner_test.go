package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDocstring(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Returns the sum of a and b.", "Returns the sum of a and b."},
		{"rst role", "Creates a :class:`Task` instance.", "Creates a Task instance."},
		{"code fence", "```python\nreturn 1\n```", "return 1"},
		{"heading", "# Summary\nDoes things.", "Summary\nDoes things."},
		{"bullet", "- first\n- second", "first\nsecond"},
		{"emphasis", "This is *very* `important`_", "This is very important"},
		{"whitespace", "a\t\t b\n\n\n\nc", "a b\n\nc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanDocstring(tc.in))
		})
	}
}
