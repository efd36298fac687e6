package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// SubmissionStore implements port.SubmissionRepository.
// Every document type shares one table partitioned by doc_type.
type SubmissionStore struct {
	db     *DB
	logger *zap.Logger
}

// NewSubmissionStore creates a new submission store
func NewSubmissionStore(db *DB, logger *zap.Logger) *SubmissionStore {
	return &SubmissionStore{db: db, logger: logger}
}

var sortColumns = map[port.SortField]string{
	port.SortSubmittedAt: "submitted_at",
	port.SortDisplayID:   "display_id",
	port.SortTotalBiaya:  "total_biaya",
	port.SortStatus:      "status",
}

// Create inserts a new submission, starting its version at 1
func (s *SubmissionStore) Create(ctx context.Context, sub *entity.Submission) error {
	if sub.Version == 0 {
		sub.Version = 1
	}
	doc, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	query := `
		INSERT INTO submissions (
			id, doc_type, display_id, category, status, submitter_uid, unit,
			total_biaya, submitted_at, version, document, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.conn(ctx).ExecContext(ctx, query,
		sub.ID,
		string(sub.DocType),
		sub.DisplayID,
		sub.Category,
		string(sub.Status),
		sub.User.UID,
		sub.User.Unit,
		sub.TotalBiaya,
		formatTime(sub.SubmittedAt),
		sub.Version,
		string(doc),
		formatTime(sub.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("submission %s: %w", sub.DisplayID, port.ErrDuplicate)
	}
	if err != nil {
		s.logger.Error("Failed to create submission",
			zap.String("doc_type", string(sub.DocType)),
			zap.String("display_id", sub.DisplayID),
			zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission
func (s *SubmissionStore) GetByID(ctx context.Context, docType entity.DocType, id string) (*entity.Submission, error) {
	var doc string
	err := s.db.conn(ctx).QueryRowContext(ctx,
		`SELECT document FROM submissions WHERE doc_type = ? AND id = ?`,
		string(docType), id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", docType, id, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return decodeSubmission(doc)
}

// DisplayIDExists reports whether the display ID is taken within the document type
func (s *SubmissionStore) DisplayIDExists(ctx context.Context, docType entity.DocType, displayID string) (bool, error) {
	var n int
	err := s.db.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(1) FROM submissions WHERE doc_type = ? AND display_id = ?`,
		string(docType), displayID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check display id: %w", err)
	}
	return n > 0, nil
}

// Find lists submissions matching the query
func (s *SubmissionStore) Find(ctx context.Context, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error) {
	query, args := buildFindQuery(docType, q)

	rows, err := s.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to find submissions", zap.String("doc_type", string(docType)), zap.Error(err))
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	defer rows.Close()

	subs := []*entity.Submission{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub, err := decodeSubmission(doc)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// UpdateIfUnchanged writes sub when the stored row still has the expected
// status and version
func (s *SubmissionStore) UpdateIfUnchanged(ctx context.Context, sub *entity.Submission, expectedStatus workflow.State, expectedVersion int64) error {
	previous := sub.Version
	sub.Version = expectedVersion + 1

	doc, err := json.Marshal(sub)
	if err != nil {
		sub.Version = previous
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	query := `
		UPDATE submissions
		SET status = ?, category = ?, total_biaya = ?, version = ?, document = ?, updated_at = ?
		WHERE doc_type = ? AND id = ? AND status = ? AND version = ?
	`
	result, err := s.db.conn(ctx).ExecContext(ctx, query,
		string(sub.Status),
		sub.Category,
		sub.TotalBiaya,
		sub.Version,
		string(doc),
		formatTime(sub.UpdatedAt),
		string(sub.DocType),
		sub.ID,
		string(expectedStatus),
		expectedVersion,
	)
	if err != nil {
		sub.Version = previous
		s.logger.Error("Failed to update submission", zap.String("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to update submission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		sub.Version = previous
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		sub.Version = previous
		if _, getErr := s.GetByID(ctx, sub.DocType, sub.ID); errors.Is(getErr, port.ErrNotFound) {
			return getErr
		}
		return fmt.Errorf("%s %s at %s v%d: %w", sub.DocType, sub.ID, expectedStatus, expectedVersion, port.ErrConcurrentModification)
	}
	return nil
}

func buildFindQuery(docType entity.DocType, q port.SubmissionQuery) (string, []interface{}) {
	where := []string{"doc_type = ?"}
	args := []interface{}{string(docType)}

	if q.SubmitterUID != "" {
		where = append(where, "submitter_uid = ?")
		args = append(args, q.SubmitterUID)
	}
	if len(q.Statuses) > 0 {
		placeholders := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.Unit != "" {
		where = append(where, "unit = ?")
		args = append(args, q.Unit)
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if !q.From.IsZero() {
		where = append(where, "submitted_at >= ?")
		args = append(args, formatTime(q.From))
	}
	if !q.To.IsZero() {
		where = append(where, "submitted_at < ?")
		args = append(args, formatTime(q.To))
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "submitted_at"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf("SELECT document FROM submissions WHERE %s ORDER BY %s %s, id ASC",
		strings.Join(where, " AND "), column, direction)

	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}
	return query, args
}

func decodeSubmission(doc string) (*entity.Submission, error) {
	var sub entity.Submission
	if err := json.Unmarshal([]byte(doc), &sub); err != nil {
		return nil, fmt.Errorf("failed to decode submission: %w", err)
	}
	return &sub, nil
}

var _ port.SubmissionRepository = (*SubmissionStore)(nil)
