// Package service holds the use cases behind the HTTP surface. Every call
// takes the caller's session explicitly; nothing reads ambient user state.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/session"
	"github.com/garyjia/expense-approval/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var (
	// ErrForbidden means the caller's role or relation to a document does not allow the call
	ErrForbidden = errors.New("forbidden")

	// ErrBonSementaraNotApproved is returned when an LPJ references a bon sementara that is not Disetujui
	ErrBonSementaraNotApproved = fmt.Errorf("%w: bon sementara must be approved before its LPJ is submitted", entity.ErrInvalidInput)

	// ErrDisplayIDExhausted is returned when every generated display id collided
	ErrDisplayIDExhausted = errors.New("could not allocate a unique display id")
)

// Clock returns the current time
type Clock func() time.Time

// validate runs struct tags and returns a ValidationError for any violation
func validate(in interface{}) (*entity.ValidationError, error) {
	violations, err := utils.ValidateStruct(in)
	if err != nil {
		return nil, err
	}
	verr := &entity.ValidationError{}
	for _, v := range violations {
		verr.Add(v.Field, v.Message)
	}
	return verr, nil
}

// canView reports whether the caller may read the submission: its submitter,
// anyone in its approver sets, and Admin or Super Admin
func canView(s *session.Session, sub *entity.Submission) bool {
	if s.Role.CanManageUsers() || sub.User.UID == s.UID {
		return true
	}
	return entity.Contains(sub.User.Validator, s.UID) ||
		entity.Contains(sub.User.Reviewer1, s.UID) ||
		entity.Contains(sub.User.Reviewer2, s.UID)
}

func requireDocType(docType entity.DocType) error {
	if !docType.IsValid() {
		return fmt.Errorf("%w: unknown document type %q", entity.ErrInvalidInput, docType)
	}
	return nil
}
