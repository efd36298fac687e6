package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// UserStore implements port.UserRepository
type UserStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewUserStore creates a new user store
func NewUserStore(db *mongo.Database, logger *zap.Logger) *UserStore {
	return &UserStore{collection: db.Collection(usersCollection), logger: logger}
}

// Create inserts a new user
func (s *UserStore) Create(ctx context.Context, user *entity.User) error {
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, port.ErrDuplicate)
		}
		s.logger.Error("Failed to create user", zap.String("uid", user.UID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update replaces a user's fields. An empty PasswordHash keeps the stored one.
func (s *UserStore) Update(ctx context.Context, user *entity.User) error {
	raw, err := bson.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if user.PasswordHash == "" {
		delete(fields, "passwordHash")
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"uid": user.UID}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, port.ErrDuplicate)
		}
		s.logger.Error("Failed to update user", zap.String("uid", user.UID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", user.UID, port.ErrNotFound)
	}
	return nil
}

// GetByUID retrieves a user by uid
func (s *UserStore) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	return s.findOne(ctx, bson.M{"uid": uid}, uid)
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, email)
}

// List returns every user in creation order
func (s *UserStore) List(ctx context.Context) ([]*entity.User, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*entity.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M, key string) (*entity.User, error) {
	var user entity.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", key, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to get user", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

var _ port.UserRepository = (*UserStore)(nil)
