package docgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforgehq/docforge/internal/model"
)

const testProjectID = "65f000000000000000000001"

func TestPlanBasic(t *testing.T) {
	store := newFakeStore()
	store.seedProject(testProjectID)
	store.prefs[testProjectID] = &model.Preferences{
		ProjectID: testProjectID,
		Format:    "HTML",
		PerFileExclusion: []model.PerFileExclusion{{
			Filename:       "main.py",
			ExcludeFuncs:   []string{"helper_fn"},
			ExcludeClasses: []string{"HelperClass"},
			ExcludeMethods: []string{"skip_method"},
		}},
	}

	planner := NewPlanner(store, store, store)
	plan, err := planner.Plan(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.Equal(t, testProjectID, plan.ProjectID)
	assert.Equal(t, "HTML", plan.Format)
	assert.Equal(t, len(plan.Items), plan.TotalItems)

	names := map[string]bool{}
	for _, it := range plan.Items {
		names[it.Name] = true
	}
	assert.True(t, names["main_fn"])
	assert.True(t, names["run"])
	assert.False(t, names["helper_fn"])
	assert.False(t, names["HelperClass"])
	assert.False(t, names["assist"])
	assert.False(t, names["skip_method"])
}

func TestPlanFilePartition(t *testing.T) {
	store := newFakeStore()
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	store.files[testProjectID] = []model.SourceFile{
		{Filename: "keep/x.py", Functions: []model.Symbol{{Name: "f", Code: "def f(): ..."}}},
		{Filename: "skip/y.py", Functions: []model.Symbol{{Name: "g", Code: "def g(): ..."}}},
		{Filename: "root/keep/z.py", Functions: []model.Symbol{{Name: "h", Code: "def h(): ..."}}},
	}
	store.prefs[testProjectID] = &model.Preferences{
		ProjectID:          testProjectID,
		Format:             "markdown",
		DirectoryExclusion: model.DirectoryExclusion{ExcludeDirs: []string{"skip"}},
	}

	planner := NewPlanner(store, store, store)
	plan, err := planner.Plan(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep/x.py", "keep/z.py"}, plan.IncludedFiles)
	assert.Equal(t, []string{"skip/y.py"}, plan.ExcludedFiles)
	assert.Equal(t, 2, plan.TotalItems)

	// Included and excluded together cover every normalized filename and
	// are disjoint; every planned item lives in an included file.
	all := map[string]bool{}
	for _, f := range plan.IncludedFiles {
		all[f] = true
	}
	for _, f := range plan.ExcludedFiles {
		assert.False(t, all[f])
		all[f] = true
	}
	assert.Len(t, all, 3)
	for _, it := range plan.Items {
		assert.Contains(t, plan.IncludedFiles, it.File)
	}
}

func TestPlanDeduplicatesNormalizedFilenames(t *testing.T) {
	store := newFakeStore()
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	store.files[testProjectID] = []model.SourceFile{
		{Filename: "root/a.py", Functions: []model.Symbol{{Name: "f", Code: "def f(): ..."}}},
		{Filename: "a.py", Functions: []model.Symbol{{Name: "g", Code: "def g(): ..."}}},
		{Filename: "root/skip/b.py", Functions: []model.Symbol{{Name: "h", Code: "def h(): ..."}}},
		{Filename: "skip/b.py", Functions: []model.Symbol{{Name: "k", Code: "def k(): ..."}}},
	}
	store.prefs[testProjectID] = &model.Preferences{
		ProjectID:          testProjectID,
		Format:             "HTML",
		DirectoryExclusion: model.DirectoryExclusion{ExcludeDirs: []string{"skip"}},
	}

	planner := NewPlanner(store, store, store)
	plan, err := planner.Plan(context.Background(), testProjectID)
	require.NoError(t, err)

	// "root/a.py" and "a.py" collide after normalization; each normalized
	// path appears once and only the first record contributes items.
	assert.Equal(t, []string{"a.py"}, plan.IncludedFiles)
	assert.Equal(t, []string{"skip/b.py"}, plan.ExcludedFiles)
	require.Equal(t, 1, plan.TotalItems)
	assert.Equal(t, "f", plan.Items[0].Name)
}

func TestPlanPerFileExclusionKeepsFileIncluded(t *testing.T) {
	store := newFakeStore()
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	store.files[testProjectID] = []model.SourceFile{
		{Filename: "keep/x.py", Functions: []model.Symbol{{Name: "f", Code: "def f(): ..."}}},
	}
	store.prefs[testProjectID] = &model.Preferences{
		ProjectID: testProjectID,
		Format:    "HTML",
		PerFileExclusion: []model.PerFileExclusion{{
			Filename:     "keep/x.py",
			ExcludeFuncs: []string{"f"},
		}},
	}

	planner := NewPlanner(store, store, store)
	plan, err := planner.Plan(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.Zero(t, plan.TotalItems)
	assert.Equal(t, []string{"keep/x.py"}, plan.IncludedFiles)
	assert.Empty(t, plan.ExcludedFiles)
}

func TestPlanDefaultsPreferencesOnRead(t *testing.T) {
	store := newFakeStore()
	store.seedProject(testProjectID)

	planner := NewPlanner(store, store, store)
	plan, err := planner.Plan(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.Equal(t, "HTML", plan.Format)
	assert.Equal(t, 8, plan.TotalItems)
	require.Contains(t, store.prefs, testProjectID)
}

func TestPlanErrors(t *testing.T) {
	store := newFakeStore()
	planner := NewPlanner(store, store, store)

	_, err := planner.Plan(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = planner.Plan(context.Background(), testProjectID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A project with zero file records is a distinct not-found case.
	store.projects[testProjectID] = &model.Project{ID: testProjectID}
	_, err = planner.Plan(context.Background(), testProjectID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no files found")
}
