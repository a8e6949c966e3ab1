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

// ErrUsernameTaken is returned when a registration collides with an
// existing username.
var ErrUsernameTaken = errors.New("username already taken")

// CreateUser inserts a new account. The username must be unique.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	user.ID = newID()
	if _, err := s.db.Collection(collUsers).InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user %s: %w", user.Username, err)
	}
	return user, nil
}

// GetUserByUsername resolves an account by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s", docgen.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return &user, nil
}

// GetUserByProvider resolves an account created through an OAuth provider.
func (s *Store) GetUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	var user model.User
	err := s.db.Collection(collUsers).FindOne(ctx,
		bson.M{"auth_provider": provider, "provider_id": providerID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s user %s", docgen.ErrNotFound, provider, providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s user %s: %w", provider, providerID, err)
	}
	return &user, nil
}

// SetGithubToken stores the encrypted GitHub access token on a user.
func (s *Store) SetGithubToken(ctx context.Context, username, encryptedToken string) error {
	res, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"github_token_enc": encryptedToken, "auth_provider": "github"}})
	if err != nil {
		return fmt.Errorf("store github token for %s: %w", username, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", docgen.ErrNotFound, username)
	}
	return nil
}
