package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/model"
)

// UpsertFile stores a parsed source file, replacing any previous upload with
// the same filename in the project. Re-uploading resets the processed
// inventories since the raw parse changed.
func (s *Store) UpsertFile(ctx context.Context, projectID, filename string, functions []model.Symbol, classes []model.ClassSymbol) (*model.SourceFile, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	if functions == nil {
		functions = []model.Symbol{}
	}
	if classes == nil {
		classes = []model.ClassSymbol{}
	}

	filter := bson.M{"project_id": projectID, "filename": filename}
	update := bson.M{
		"$set": bson.M{
			"functions":           functions,
			"classes":             classes,
			"processed_functions": []model.Symbol{},
			"processed_classes":   []model.ClassSymbol{},
		},
		"$setOnInsert": bson.M{"_id": newID()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var file model.SourceFile
	if err := s.db.Collection(collFiles).FindOneAndUpdate(ctx, filter, update, opts).Decode(&file); err != nil {
		return nil, fmt.Errorf("upsert file %s: %w", filename, err)
	}
	return &file, nil
}

// ListFiles returns all source files belonging to a project.
func (s *Store) ListFiles(ctx context.Context, projectID string) ([]model.SourceFile, error) {
	if err := validateID(projectID); err != nil {
		return nil, err
	}
	cur, err := s.db.Collection(collFiles).Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("list files for project %s: %w", projectID, err)
	}
	files := []model.SourceFile{}
	if err := cur.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return files, nil
}

// GetFile resolves one source file by id.
func (s *Store) GetFile(ctx context.Context, fileID string) (*model.SourceFile, error) {
	if err := validateID(fileID); err != nil {
		return nil, err
	}
	var file model.SourceFile
	err := s.db.Collection(collFiles).FindOne(ctx, bson.M{"_id": fileID}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: file %s", docgen.ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("find file %s: %w", fileID, err)
	}
	return &file, nil
}

// SetProcessed replaces a file's processed symbol inventories.
func (s *Store) SetProcessed(ctx context.Context, fileID string, functions []model.Symbol, classes []model.ClassSymbol) error {
	if err := validateID(fileID); err != nil {
		return err
	}
	if functions == nil {
		functions = []model.Symbol{}
	}
	if classes == nil {
		classes = []model.ClassSymbol{}
	}
	res, err := s.db.Collection(collFiles).UpdateOne(ctx,
		bson.M{"_id": fileID},
		bson.M{"$set": bson.M{
			"processed_functions": functions,
			"processed_classes":   classes,
		}})
	if err != nil {
		return fmt.Errorf("set processed symbols for file %s: %w", fileID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: file %s", docgen.ErrNotFound, fileID)
	}
	return nil
}

// DeleteFile removes one source file.
func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	if err := validateID(fileID); err != nil {
		return err
	}
	res, err := s.db.Collection(collFiles).DeleteOne(ctx, bson.M{"_id": fileID})
	if err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: file %s", docgen.ErrNotFound, fileID)
	}
	return nil
}
