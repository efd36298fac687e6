package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// DraftStore implements port.DraftRepository
type DraftStore struct {
	db     *DB
	logger *zap.Logger
}

// NewDraftStore creates a new draft store
func NewDraftStore(db *DB, logger *zap.Logger) *DraftStore {
	return &DraftStore{db: db, logger: logger}
}

// Save writes the draft into its slot, replacing whatever was there
func (s *DraftStore) Save(ctx context.Context, draft *entity.Draft) error {
	query := `
		INSERT INTO drafts (draft_key, uid, draft_type, payload, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(draft_key) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`
	_, err := s.db.conn(ctx).ExecContext(ctx, query,
		draft.Key,
		draft.UID,
		draft.DraftType,
		string(draft.Payload),
		formatTime(draft.SavedAt),
	)
	if err != nil {
		s.logger.Error("Failed to save draft", zap.String("key", draft.Key), zap.Error(err))
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Take returns the draft and deletes it in the same statement
func (s *DraftStore) Take(ctx context.Context, key string) (*entity.Draft, error) {
	query := `
		DELETE FROM drafts WHERE draft_key = ?
		RETURNING uid, draft_type, payload, saved_at
	`
	var (
		draft   = entity.Draft{Key: key}
		payload string
		savedAt string
	)
	err := s.db.conn(ctx).QueryRowContext(ctx, query, key).Scan(
		&draft.UID,
		&draft.DraftType,
		&payload,
		&savedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", key, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to take draft", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to take draft: %w", err)
	}

	draft.Payload = []byte(payload)
	if draft.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, fmt.Errorf("failed to parse draft timestamp: %w", err)
	}
	return &draft, nil
}

var _ port.DraftRepository = (*DraftStore)(nil)
