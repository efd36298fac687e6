package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// UserStore implements port.UserRepository
type UserStore struct {
	db     *DB
	logger *zap.Logger
}

// NewUserStore creates a new user store
func NewUserStore(db *DB, logger *zap.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// Create inserts a new user. A taken uid or email returns port.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *entity.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	query := `
		INSERT INTO users (uid, email, password_hash, role, unit, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.conn(ctx).ExecContext(ctx, query,
		user.UID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Unit,
		string(doc),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, port.ErrDuplicate)
	}
	if err != nil {
		s.logger.Error("Failed to create user", zap.String("uid", user.UID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update replaces a user. An empty PasswordHash keeps the stored one.
func (s *UserStore) Update(ctx context.Context, user *entity.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	query := `
		UPDATE users
		SET email = ?, password_hash = COALESCE(NULLIF(?, ''), password_hash),
			role = ?, unit = ?, document = ?, updated_at = ?
		WHERE uid = ?
	`
	result, err := s.db.conn(ctx).ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Unit,
		string(doc),
		formatTime(user.UpdatedAt),
		user.UID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, port.ErrDuplicate)
	}
	if err != nil {
		s.logger.Error("Failed to update user", zap.String("uid", user.UID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", user.UID, port.ErrNotFound)
	}
	return nil
}

// GetByUID retrieves a user by uid
func (s *UserStore) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	return s.getOne(ctx, `SELECT document, password_hash FROM users WHERE uid = ?`, uid)
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.getOne(ctx, `SELECT document, password_hash FROM users WHERE email = ?`, email)
}

// List returns every user ordered by name
func (s *UserStore) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := s.db.conn(ctx).QueryContext(ctx, `SELECT document, password_hash FROM users ORDER BY created_at`)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *UserStore) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	user, err := scanUser(s.db.conn(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, port.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to get user", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*entity.User, error) {
	var doc, hash string
	if err := row.Scan(&doc, &hash); err != nil {
		return nil, err
	}
	var user entity.User
	if err := json.Unmarshal([]byte(doc), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	user.PasswordHash = hash
	return &user, nil
}

var _ port.UserRepository = (*UserStore)(nil)
