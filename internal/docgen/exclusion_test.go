package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforgehq/docforge/internal/model"
)

func TestIsFileExcluded(t *testing.T) {
	assert.True(t, IsFileExcluded("a.py", []string{"a.py"}, nil))
	assert.True(t, IsFileExcluded("./a.py", []string{"root/a.py"}, nil))
	assert.True(t, IsFileExcluded("dir/z.py", nil, []string{"dir"}))
	assert.True(t, IsFileExcluded("dir2/x.py", nil, []string{"dir2"}))
	assert.True(t, IsFileExcluded("dir2", nil, []string{"dir2"}))
	assert.False(t, IsFileExcluded("keep/z.py", []string{"a.py"}, []string{"dir"}))

	// A directory prefix must match a full path segment, not a string prefix.
	assert.False(t, IsFileExcluded("dir20/x.py", nil, []string{"dir2"}))

	// Empty dir entries must not exclude everything.
	assert.False(t, IsFileExcluded("a.py", nil, []string{""}))
}

func TestBuildPerFileMapDropsEmptyAndLastWins(t *testing.T) {
	m := buildPerFileMap([]model.PerFileExclusion{
		{Filename: "", ExcludeFuncs: []string{"ghost"}},
		{Filename: "a.py", ExcludeFuncs: []string{"old"}},
		{Filename: "./root/a.py", ExcludeFuncs: []string{"new"}},
	})
	require.Len(t, m, 1)
	ex, ok := m["a.py"]
	require.True(t, ok)
	assert.Contains(t, ex.functions, "new")
	assert.NotContains(t, ex.functions, "old")
}

func TestFilterItemsPerFileExclusion(t *testing.T) {
	items := []model.Item{
		{Name: "main_fn", Type: model.ItemFunction, File: "main.py"},
		{Name: "helper_fn", Type: model.ItemFunction, File: "main.py"},
		{Name: "MainClass", Type: model.ItemClass, File: "main.py"},
		{Name: "run", Type: model.ItemMethod, File: "main.py", ParentClass: "MainClass"},
		{Name: "skip_method", Type: model.ItemMethod, File: "main.py", ParentClass: "MainClass"},
		{Name: "HelperClass", Type: model.ItemClass, File: "main.py"},
		{Name: "assist", Type: model.ItemMethod, File: "main.py", ParentClass: "HelperClass"},
		{Name: "skip_method", Type: model.ItemMethod, File: "main.py", ParentClass: "HelperClass"},
	}
	prefs := &model.Preferences{
		PerFileExclusion: []model.PerFileExclusion{{
			Filename:       "main.py",
			ExcludeFuncs:   []string{"helper_fn"},
			ExcludeClasses: []string{"HelperClass"},
			ExcludeMethods: []string{"skip_method"},
		}},
	}

	filtered, excluded, included := FilterItems(items, prefs)

	var names []string
	for _, it := range filtered {
		name := it.Name
		if it.Type == model.ItemMethod {
			name = it.ParentClass + "." + it.Name
		}
		names = append(names, name)
	}
	assert.Equal(t, []string{"main_fn", "MainClass", "MainClass.run"}, names)
	assert.Empty(t, excluded)
	assert.Equal(t, []string{"main.py"}, included)
}

func TestFilterItemsDirectoryExclusion(t *testing.T) {
	items := []model.Item{
		{Name: "fa", Type: model.ItemFunction, File: "a.py"},
		{Name: "fb", Type: model.ItemFunction, File: "sub/b.py"},
		{Name: "fc", Type: model.ItemFunction, File: "sub/c.py"},
	}
	prefs := &model.Preferences{
		DirectoryExclusion: model.DirectoryExclusion{ExcludeDirs: []string{"sub"}},
	}

	filtered, excluded, included := FilterItems(items, prefs)
	require.Len(t, filtered, 1)
	assert.Equal(t, "fa", filtered[0].Name)
	assert.Equal(t, []string{"sub/b.py", "sub/c.py"}, excluded)
	assert.Equal(t, []string{"a.py"}, included)
}

func TestFilterItemsFullyFilteredFileStaysIncluded(t *testing.T) {
	// Per-file symbol exclusion removing every item from a file must not
	// move that file into the excluded set.
	items := []model.Item{{Name: "only", Type: model.ItemFunction, File: "keep/x.py"}}
	prefs := &model.Preferences{
		PerFileExclusion: []model.PerFileExclusion{{
			Filename:     "keep/x.py",
			ExcludeFuncs: []string{"only"},
		}},
	}

	filtered, excluded, included := FilterItems(items, prefs)
	assert.Empty(t, filtered)
	assert.Empty(t, excluded)
	assert.Equal(t, []string{"keep/x.py"}, included)
}
