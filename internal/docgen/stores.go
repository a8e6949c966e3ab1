package docgen

import (
	"context"

	"github.com/docforgehq/docforge/internal/model"
)

// The pipeline talks to persistence through these narrow interfaces so the
// core stays testable without a running database. The Mongo-backed
// implementations live in internal/store.

// ProjectStore resolves projects and applies status updates. GetProject
// returns an error wrapping ErrNotFound when the project does not exist and
// ErrInvalidArgument when the id is malformed.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	SetProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error
}

// FileStore lists a project's source file records.
type FileStore interface {
	ListFiles(ctx context.Context, projectID string) ([]model.SourceFile, error)
}

// PreferenceStore resolves a project's preferences with create-on-read
// semantics: when no document exists (in the current or the legacy
// collection), defaults are stored and returned.
type PreferenceStore interface {
	GetOrCreatePreferences(ctx context.Context, projectID string) (*model.Preferences, error)
}

// RevisionStore persists documentation revisions and returns the stored
// revision id.
type RevisionStore interface {
	InsertRevision(ctx context.Context, rev *model.DocumentationRevision) (string, error)
}
