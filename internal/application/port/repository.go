package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when a conditional write finds the
	// document changed since it was read
	ErrConcurrentModification = errors.New("document was modified concurrently")

	// ErrDuplicate is returned when a unique key already exists
	ErrDuplicate = errors.New("duplicate key")
)

// SortField names a sortable submission column
type SortField string

const (
	SortSubmittedAt SortField = "submittedAt"
	SortDisplayID   SortField = "displayId"
	SortTotalBiaya  SortField = "totalBiaya"
	SortStatus      SortField = "status"
)

// SubmissionQuery filters a submission listing. Zero values do not filter.
type SubmissionQuery struct {
	SubmitterUID string
	Statuses     []workflow.State
	Unit         string
	Category     string
	// From is inclusive, To exclusive, both on SubmittedAt
	From time.Time
	To   time.Time

	SortBy   SortField
	SortDesc bool
	Limit    int
	Offset   int
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	GetByUID(ctx context.Context, uid string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
}

// SubmissionRepository defines persistence operations for Submission, one
// collection per document type
type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error
	GetByID(ctx context.Context, docType entity.DocType, id string) (*entity.Submission, error)
	DisplayIDExists(ctx context.Context, docType entity.DocType, displayID string) (bool, error)
	Find(ctx context.Context, docType entity.DocType, q SubmissionQuery) ([]*entity.Submission, error)

	// UpdateIfUnchanged writes sub only if the stored document still has
	// expectedStatus and expectedVersion, bumping the version on success.
	// It returns ErrConcurrentModification when nothing matched.
	UpdateIfUnchanged(ctx context.Context, sub *entity.Submission, expectedStatus workflow.State, expectedVersion int64) error
}

// DraftRepository defines persistence operations for Draft
type DraftRepository interface {
	// Save overwrites the slot
	Save(ctx context.Context, draft *entity.Draft) error

	// Take reads and deletes the slot in one call
	Take(ctx context.Context, key string) (*entity.Draft, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
