package docgen

import (
	"sort"
	"strings"

	"github.com/docforgehq/docforge/internal/model"
)

// IsFileExcluded reports whether path is dropped by the directory-exclusion
// rule: an exact match against excludeFiles, or a directory in excludeDirs
// that equals the path or is a full path-segment prefix of it. "dir2" matches
// "dir2/x.py" but not "dir20/x.py".
func IsFileExcluded(path string, excludeFiles, excludeDirs []string) bool {
	p := NormalizePath(path)
	for _, f := range excludeFiles {
		if p == NormalizePath(f) {
			return true
		}
	}
	for _, d := range excludeDirs {
		nd := NormalizePath(d)
		if nd == "" {
			continue
		}
		if p == nd || strings.HasPrefix(p, nd+"/") {
			return true
		}
	}
	return false
}

// symbolExclusions is the per-file symbol exclusion entry in set form.
type symbolExclusions struct {
	functions map[string]struct{}
	classes   map[string]struct{}
	methods   map[string]struct{}
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// buildPerFileMap converts the preference entries into a lookup keyed by
// normalized filename. Entries with an empty filename are dropped; duplicate
// filenames are resolved last-wins.
func buildPerFileMap(entries []model.PerFileExclusion) map[string]symbolExclusions {
	m := make(map[string]symbolExclusions, len(entries))
	for _, e := range entries {
		key := NormalizePath(e.Filename)
		if key == "" {
			continue
		}
		m[key] = symbolExclusions{
			functions: toSet(e.ExcludeFuncs),
			classes:   toSet(e.ExcludeClasses),
			methods:   toSet(e.ExcludeMethods),
		}
	}
	return m
}

// itemExcluded applies the per-file symbol rules to a single item.
func itemExcluded(it model.Item, ex symbolExclusions) bool {
	switch it.Type {
	case model.ItemFunction:
		_, drop := ex.functions[it.Name]
		return drop
	case model.ItemClass:
		_, drop := ex.classes[it.Name]
		return drop
	case model.ItemMethod:
		if _, drop := ex.classes[it.ParentClass]; drop {
			return true
		}
		_, drop := ex.methods[it.Name]
		return drop
	default:
		return false
	}
}

// FilterItems applies the full preference set to a flat item list. Items in
// directory-excluded files are dropped and their file recorded as excluded;
// surviving files are recorded as included even when per-file symbol
// exclusion removes every item they contain. Both file lists come back
// deduplicated and sorted.
func FilterItems(items []model.Item, prefs *model.Preferences) (filtered []model.Item, excludedFiles, includedFiles []string) {
	perFile := buildPerFileMap(prefs.PerFileExclusion)
	excludeFiles := prefs.DirectoryExclusion.ExcludeFiles
	excludeDirs := prefs.DirectoryExclusion.ExcludeDirs

	filtered = make([]model.Item, 0, len(items))
	excludedSet := make(map[string]struct{})
	includedSet := make(map[string]struct{})

	for _, it := range items {
		file := NormalizePath(it.File)
		if IsFileExcluded(file, excludeFiles, excludeDirs) {
			excludedSet[file] = struct{}{}
			continue
		}
		includedSet[file] = struct{}{}
		if ex, ok := perFile[file]; ok && itemExcluded(it, ex) {
			continue
		}
		it.File = file
		filtered = append(filtered, it)
	}

	return filtered, sortedKeys(excludedSet), sortedKeys(includedSet)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
