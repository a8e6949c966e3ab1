package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/model"
)

// InsertRevision stores a completed documentation revision and returns its
// revision id.
func (s *Store) InsertRevision(ctx context.Context, rev *model.DocumentationRevision) (string, error) {
	if rev.ID == "" {
		rev.ID = newID()
	}
	if _, err := s.db.Collection(collRevisions).InsertOne(ctx, rev); err != nil {
		return "", fmt.Errorf("insert revision for project %s: %w", rev.ProjectID, err)
	}
	return rev.RevisionID, nil
}

// ListRevisions returns a project's revisions, newest first.
func (s *Store) ListRevisions(ctx context.Context, projectID string) ([]model.DocumentationRevision, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	cur, err := s.db.Collection(collRevisions).Find(ctx, bson.M{"project_id": projectID},
		findSortDesc("created_at"))
	if err != nil {
		return nil, fmt.Errorf("list revisions for project %s: %w", projectID, err)
	}
	revisions := []model.DocumentationRevision{}
	if err := cur.All(ctx, &revisions); err != nil {
		return nil, fmt.Errorf("decode revisions: %w", err)
	}
	return revisions, nil
}

// GetRevision resolves one revision within a project.
func (s *Store) GetRevision(ctx context.Context, projectID, revisionID string) (*model.DocumentationRevision, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	var rev model.DocumentationRevision
	err := s.db.Collection(collRevisions).FindOne(ctx,
		bson.M{"project_id": projectID, "revision_id": revisionID}).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: revision %s", docgen.ErrNotFound, revisionID)
	}
	if err != nil {
		return nil, fmt.Errorf("find revision %s: %w", revisionID, err)
	}
	return &rev, nil
}

// PatchRevision updates the cosmetic fields of a revision. Generated
// content is immutable; only title, filename, and description may change.
func (s *Store) PatchRevision(ctx context.Context, projectID, revisionID string, title, filename, description *string) (*model.DocumentationRevision, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	set := bson.M{}
	if title != nil {
		set["title"] = *title
	}
	if filename != nil {
		set["filename"] = *filename
	}
	if description != nil {
		set["description"] = *description
	}
	if len(set) > 0 {
		res, err := s.db.Collection(collRevisions).UpdateOne(ctx,
			bson.M{"project_id": projectID, "revision_id": revisionID},
			bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("patch revision %s: %w", revisionID, err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("%w: revision %s", docgen.ErrNotFound, revisionID)
		}
	}
	return s.GetRevision(ctx, projectID, revisionID)
}

// DeleteRevision removes one revision.
func (s *Store) DeleteRevision(ctx context.Context, projectID, revisionID string) error {
	if err := validateID(projectID); err != nil {
		return err
	}
	res, err := s.db.Collection(collRevisions).DeleteOne(ctx,
		bson.M{"project_id": projectID, "revision_id": revisionID})
	if err != nil {
		return fmt.Errorf("delete revision %s: %w", revisionID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: revision %s", docgen.ErrNotFound, revisionID)
	}
	return nil
}
