package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docforgehq/docforge/internal/model"
)

// PersistRequest carries everything the persister writes into one revision.
type PersistRequest struct {
	ProjectID      string
	Format         string
	Results        []model.DocstringResult
	IncludedFiles  []string
	ExcludedFiles  []string
	GenerationSecs float64
	Preferences    *model.Preferences
	CreatedBy      string
}

// Persister writes generation outcomes as immutable documentation revisions
// and marks the owning project completed.
type Persister struct {
	revisions RevisionStore
	projects  ProjectStore
	logger    *slog.Logger
}

// NewPersister creates a Persister over the given stores.
func NewPersister(revisions RevisionStore, projects ProjectStore, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{revisions: revisions, projects: projects, logger: logger}
}

// Persist inserts one revision document and returns its revision id. No
// rendering happens at write time; HTML/Markdown/PDF are produced at read
// time from the stored results. The project status update is best-effort:
// the revision write is authoritative, so a status failure is logged and
// swallowed rather than failing the run.
func (p *Persister) Persist(ctx context.Context, req PersistRequest) (string, error) {
	rev := &model.DocumentationRevision{
		RevisionID:     uuid.NewString(),
		ProjectID:      req.ProjectID,
		Format:         req.Format,
		Results:        req.Results,
		IncludedFiles:  req.IncludedFiles,
		ExcludedFiles:  req.ExcludedFiles,
		Preferences:    req.Preferences,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      time.Now().UTC(),
		GenerationSecs: req.GenerationSecs,
	}
	if _, err := p.revisions.InsertRevision(ctx, rev); err != nil {
		return "", fmt.Errorf("insert revision: %w", err)
	}

	p.bestEffort("mark project completed", func() error {
		return p.projects.SetProjectStatus(ctx, req.ProjectID, model.StatusCompleted)
	})

	return rev.RevisionID, nil
}

// bestEffort runs a non-critical side effect, logging instead of propagating
// its error.
func (p *Persister) bestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		p.logger.Warn("non-critical side effect failed", "op", op, "error", err)
	}
}
