// Package docgen implements the documentation pipeline: it flattens a
// project's parsed source inventory into documentable items, applies
// hierarchical exclusion preferences to compute a deterministic generation
// plan, fans the plan out to the text-generation endpoint in bounded
// concurrent batches, and persists the outcome as an immutable revision.
package docgen

import "strings"

// NormalizePath canonicalizes a file path for exclusion matching. Backslashes
// become slashes, all leading "./" segments are stripped, one leading "/" is
// dropped, and a single leading "root/" segment is removed. Normalization is
// the sole key-equality basis for exclusion comparisons, so both sides of any
// comparison must pass through it.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "root/")
	return p
}
