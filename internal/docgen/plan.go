package docgen

import (
	"context"
	"fmt"

	"github.com/docforgehq/docforge/internal/model"
)

// Planner computes documentation plans from stored files and preferences.
type Planner struct {
	projects ProjectStore
	files    FileStore
	prefs    PreferenceStore
}

// NewPlanner creates a Planner over the given stores.
func NewPlanner(projects ProjectStore, files FileStore, prefs PreferenceStore) *Planner {
	return &Planner{projects: projects, files: files, prefs: prefs}
}

// Plan resolves the project's preferences and files and computes the
// deterministic generation plan: the directory-exclusion file partition and
// the preference-filtered item list. The plan is recomputed on every call;
// preferences or files may have changed since the last one.
func (p *Planner) Plan(ctx context.Context, projectID string) (*model.DocumentationPlan, error) {
	plan, _, err := p.plan(ctx, projectID)
	return plan, err
}

// plan also hands back the preferences document the plan was computed from,
// so a generation run persists the exact snapshot it planned against rather
// than whatever the store holds once generation finishes.
func (p *Planner) plan(ctx context.Context, projectID string) (*model.DocumentationPlan, *model.Preferences, error) {
	if _, err := p.projects.GetProject(ctx, projectID); err != nil {
		return nil, nil, err
	}

	prefs, err := p.prefs.GetOrCreatePreferences(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve preferences: %w", err)
	}

	files, err := p.files.ListFiles(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("list files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, notFoundf("no files found for project %s", projectID)
	}

	// Partition the full file set by the directory rule alone. Per-file
	// symbol exclusion never moves a file between these sets. Sets, not
	// slices: distinct stored filenames can normalize to the same path,
	// and each path must appear in the plan once.
	includedSet := make(map[string]struct{})
	excludedSet := make(map[string]struct{})
	var includedFiles []model.SourceFile
	for i := range files {
		name := NormalizePath(files[i].Filename)
		if IsFileExcluded(name, prefs.DirectoryExclusion.ExcludeFiles, prefs.DirectoryExclusion.ExcludeDirs) {
			excludedSet[name] = struct{}{}
			continue
		}
		if _, seen := includedSet[name]; seen {
			continue
		}
		includedSet[name] = struct{}{}
		includedFiles = append(includedFiles, files[i])
	}

	items := BuildItems(includedFiles)
	filtered, _, _ := FilterItems(items, prefs)

	return &model.DocumentationPlan{
		ProjectID:     projectID,
		Format:        prefs.Format,
		TotalItems:    len(filtered),
		Items:         filtered,
		ExcludedFiles: sortedKeys(excludedSet),
		IncludedFiles: sortedKeys(includedSet),
	}, prefs, nil
}
