package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/model"
)

// CreateProject inserts a new project owned by userID and returns it with
// its assigned id and initial status.
func (s *Store) CreateProject(ctx context.Context, userID, name, description string, tags []string) (*model.Project, error) {
	now := time.Now().UTC()
	project := &model.Project{
		ID:          newID(),
		Name:        name,
		Description: description,
		UserID:      userID,
		Tags:        tags,
		Status:      model.StatusEmpty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if project.Tags == nil {
		project.Tags = []string{}
	}
	if _, err := s.db.Collection(collProjects).InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// GetProject resolves a project by id.
func (s *Store) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	var project model.Project
	err := s.db.Collection(collProjects).FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: project %s", docgen.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("find project %s: %w", projectID, err)
	}
	return &project, nil
}

// ListProjects returns all projects owned by userID, newest first.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	cur, err := s.db.Collection(collProjects).Find(ctx, bson.M{"user_id": userID},
		findSortDesc("created_at"))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := []model.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

// UpdateProject patches the mutable project fields. Nil pointers leave the
// corresponding field untouched.
func (s *Store) UpdateProject(ctx context.Context, projectID string, name, description *string, tags []string) (*model.Project, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if name != nil {
		set["name"] = *name
	}
	if description != nil {
		set["description"] = *description
	}
	if tags != nil {
		set["tags"] = tags
	}
	res, err := s.db.Collection(collProjects).UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", projectID, err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: project %s", docgen.ErrNotFound, projectID)
	}
	return s.GetProject(ctx, projectID)
}

// SetProjectStatus updates the derived status field.
func (s *Store) SetProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error {
	if err := validateID(projectID); err != nil {
		return err
	}
	_, err := s.db.Collection(collProjects).UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("set project %s status: %w", projectID, err)
	}
	return nil
}

// DeleteProject removes a project and everything hanging off it: files,
// preferences (both collections), and documentation revisions.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	if err := validateID(projectID); err != nil {
		return err
	}
	res, err := s.db.Collection(collProjects).DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: project %s", docgen.ErrNotFound, projectID)
	}

	byProject := bson.M{"project_id": projectID}
	for _, coll := range []string{collFiles, collPreferences, collLegacyPreferences, collRevisions} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, byProject); err != nil {
			return fmt.Errorf("delete %s for project %s: %w", coll, projectID, err)
		}
	}
	return nil
}
