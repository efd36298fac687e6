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

// DraftStore implements port.DraftRepository
type DraftStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewDraftStore creates a new draft store
func NewDraftStore(db *mongo.Database, logger *zap.Logger) *DraftStore {
	return &DraftStore{collection: db.Collection(draftsCollection), logger: logger}
}

// Save upserts the draft slot
func (s *DraftStore) Save(ctx context.Context, draft *entity.Draft) error {
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": draft.Key}, draft, options.Replace().SetUpsert(true))
	if err != nil {
		s.logger.Error("Failed to save draft", zap.String("key", draft.Key), zap.Error(err))
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Take returns the draft and deletes it atomically
func (s *DraftStore) Take(ctx context.Context, key string) (*entity.Draft, error) {
	var draft entity.Draft
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": key}).Decode(&draft)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("draft %s: %w", key, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to take draft", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to take draft: %w", err)
	}
	return &draft, nil
}

var _ port.DraftRepository = (*DraftStore)(nil)
