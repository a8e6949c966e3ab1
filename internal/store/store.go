// Package store provides MongoDB-backed persistence for projects, source
// files, preferences, documentation revisions, and users. Documents carry
// hex object ids as string _id values so the rest of the codebase never
// handles driver-specific id types.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docforgehq/docforge/internal/docgen"
)

// Collection names. preferences replaced the legacy project_preferences
// collection; reads fall back to the old name until existing deployments
// are migrated.
const (
	collProjects          = "projects"
	collFiles             = "files"
	collPreferences       = "preferences"
	collLegacyPreferences = "project_preferences"
	collRevisions         = "documentation_revisions"
	collUsers             = "users"
)

// Store wraps a MongoDB database handle.
type Store struct {
	db *mongo.Database
}

// Connect opens a client for the given URI and verifies connectivity.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		collProjects: {
			{Keys: map[string]int{"user_id": 1}},
		},
		collFiles: {
			{Keys: map[string]int{"project_id": 1}},
		},
		collPreferences: {
			{Keys: map[string]int{"project_id": 1}, Options: options.Index().SetUnique(true)},
		},
		collRevisions: {
			{Keys: map[string]int{"project_id": 1}},
			{Keys: map[string]int{"revision_id": 1}, Options: options.Index().SetUnique(true)},
		},
		collUsers: {
			{Keys: map[string]int{"username": 1}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// findSortDesc sorts a find by one field, descending.
func findSortDesc(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}})
}

// newID mints a fresh hex object id.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// validateID checks that id is a well-formed hex object id, returning an
// error wrapping docgen.ErrInvalidArgument otherwise.
func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", docgen.ErrInvalidArgument, id)
	}
	return nil
}
