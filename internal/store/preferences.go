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

// GetOrCreatePreferences resolves a project's preferences with
// create-on-read semantics. Documents found in the legacy
// project_preferences collection are migrated into preferences before
// being returned, so the fallback pays for itself exactly once per project.
func (s *Store) GetOrCreatePreferences(ctx context.Context, projectID string) (*model.Preferences, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	filter := bson.M{"project_id": projectID}

	var prefs model.Preferences
	err := s.db.Collection(collPreferences).FindOne(ctx, filter).Decode(&prefs)
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find preferences for project %s: %w", projectID, err)
	}

	err = s.db.Collection(collLegacyPreferences).FindOne(ctx, filter).Decode(&prefs)
	if err == nil {
		if insertErr := s.insertPreferences(ctx, &prefs); insertErr != nil {
			return nil, insertErr
		}
		_, _ = s.db.Collection(collLegacyPreferences).DeleteOne(ctx, filter)
		return &prefs, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find legacy preferences for project %s: %w", projectID, err)
	}

	defaults := model.DefaultPreferences(projectID)
	if err := s.insertPreferences(ctx, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (s *Store) insertPreferences(ctx context.Context, prefs *model.Preferences) error {
	prefs.ID = newID()
	if _, err := s.db.Collection(collPreferences).InsertOne(ctx, prefs); err != nil {
		return fmt.Errorf("insert preferences for project %s: %w", prefs.ProjectID, err)
	}
	return nil
}

// UpdatePreferences applies a partial update. Nil fields stay untouched;
// the document is created with defaults first if the project has none.
func (s *Store) UpdatePreferences(ctx context.Context, projectID string, format *string, dir *model.DirectoryExclusion, perFile []model.PerFileExclusion) (*model.Preferences, error) {
	if _, err := s.GetOrCreatePreferences(ctx, projectID); err != nil {
		return nil, err
	}

	set := bson.M{}
	if format != nil {
		set["format"] = *format
	}
	if dir != nil {
		set["directory_exclusion"] = *dir
	}
	if perFile != nil {
		set["per_file_exclusion"] = perFile
	}
	if len(set) > 0 {
		_, err := s.db.Collection(collPreferences).UpdateOne(ctx,
			bson.M{"project_id": projectID}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("update preferences for project %s: %w", projectID, err)
		}
	}
	return s.GetOrCreatePreferences(ctx, projectID)
}

// DeletePreferences removes a project's preferences document. The next read
// recreates defaults.
func (s *Store) DeletePreferences(ctx context.Context, projectID string) error {
	if err := validateID(projectID); err != nil {
		return err
	}
	filter := bson.M{"project_id": projectID}
	res, err := s.db.Collection(collPreferences).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete preferences for project %s: %w", projectID, err)
	}
	legacy, err := s.db.Collection(collLegacyPreferences).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete legacy preferences for project %s: %w", projectID, err)
	}
	if res.DeletedCount == 0 && legacy.DeletedCount == 0 {
		return fmt.Errorf("%w: preferences for project %s", docgen.ErrNotFound, projectID)
	}
	return nil
}
