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
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// SubmissionStore implements port.SubmissionRepository with one collection
// per document type
type SubmissionStore struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewSubmissionStore creates a new submission store
func NewSubmissionStore(db *mongo.Database, logger *zap.Logger) *SubmissionStore {
	return &SubmissionStore{db: db, logger: logger}
}

var sortFields = map[port.SortField]string{
	port.SortSubmittedAt: "submittedAt",
	port.SortDisplayID:   "displayId",
	port.SortTotalBiaya:  "totalBiaya",
	port.SortStatus:      "status",
}

func (s *SubmissionStore) collection(docType entity.DocType) *mongo.Collection {
	return s.db.Collection(string(docType))
}

// Create inserts a new submission, starting its version at 1
func (s *SubmissionStore) Create(ctx context.Context, sub *entity.Submission) error {
	if sub.Version == 0 {
		sub.Version = 1
	}
	if _, err := s.collection(sub.DocType).InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("submission %s: %w", sub.DisplayID, port.ErrDuplicate)
		}
		s.logger.Error("Failed to create submission", zap.String("display_id", sub.DisplayID), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission
func (s *SubmissionStore) GetByID(ctx context.Context, docType entity.DocType, id string) (*entity.Submission, error) {
	var sub entity.Submission
	err := s.collection(docType).FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", docType, id, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// DisplayIDExists reports whether the display ID is taken within the document type
func (s *SubmissionStore) DisplayIDExists(ctx context.Context, docType entity.DocType, displayID string) (bool, error) {
	n, err := s.collection(docType).CountDocuments(ctx, bson.M{"displayId": displayID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check display id: %w", err)
	}
	return n > 0, nil
}

// Find lists submissions matching the query
func (s *SubmissionStore) Find(ctx context.Context, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error) {
	cursor, err := s.collection(docType).Find(ctx, buildFilter(q), findOptions(q))
	if err != nil {
		s.logger.Error("Failed to find submissions", zap.String("doc_type", string(docType)), zap.Error(err))
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	defer cursor.Close(ctx)

	subs := []*entity.Submission{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	return subs, nil
}

// UpdateIfUnchanged replaces the document when it still has the expected
// status and version
func (s *SubmissionStore) UpdateIfUnchanged(ctx context.Context, sub *entity.Submission, expectedStatus workflow.State, expectedVersion int64) error {
	previous := sub.Version
	sub.Version = expectedVersion + 1

	filter := bson.M{"_id": sub.ID, "status": expectedStatus, "version": expectedVersion}
	result, err := s.collection(sub.DocType).ReplaceOne(ctx, filter, sub)
	if err != nil {
		sub.Version = previous
		s.logger.Error("Failed to update submission", zap.String("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if result.MatchedCount == 0 {
		sub.Version = previous
		if _, getErr := s.GetByID(ctx, sub.DocType, sub.ID); errors.Is(getErr, port.ErrNotFound) {
			return getErr
		}
		return fmt.Errorf("%s %s at %s v%d: %w", sub.DocType, sub.ID, expectedStatus, expectedVersion, port.ErrConcurrentModification)
	}
	return nil
}

func buildFilter(q port.SubmissionQuery) bson.D {
	filter := bson.D{}
	if q.SubmitterUID != "" {
		filter = append(filter, bson.E{Key: "user.uid", Value: q.SubmitterUID})
	}
	if len(q.Statuses) > 0 {
		statuses := make(bson.A, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		filter = append(filter, bson.E{Key: "status", Value: bson.M{"$in": statuses}})
	}
	if q.Unit != "" {
		filter = append(filter, bson.E{Key: "user.unit", Value: q.Unit})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		rng := bson.M{}
		if !q.From.IsZero() {
			rng["$gte"] = q.From
		}
		if !q.To.IsZero() {
			rng["$lt"] = q.To
		}
		filter = append(filter, bson.E{Key: "submittedAt", Value: rng})
	}
	return filter
}

func findOptions(q port.SubmissionQuery) *options.FindOptions {
	field, ok := sortFields[q.SortBy]
	if !ok {
		field = "submittedAt"
	}
	direction := 1
	if q.SortDesc {
		direction = -1
	}

	opts := options.Find().SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit)).SetSkip(int64(q.Offset))
	}
	return opts
}

var _ port.SubmissionRepository = (*SubmissionStore)(nil)
