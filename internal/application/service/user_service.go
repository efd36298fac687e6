package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/session"
)

// UserInput is the editable profile of a user
type UserInput struct {
	Nama  string `json:"nama" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	// Password is required on create; on update an empty value keeps the old one
	Password      string   `json:"password" validate:"omitempty,min=8"`
	Role          string   `json:"role" validate:"required"`
	Unit          string   `json:"unit" validate:"required"`
	Department    []string `json:"department"`
	BankName      string   `json:"bankName"`
	AccountNumber string   `json:"accountNumber"`
	Validator     []string `json:"validator"`
	Reviewer1     []string `json:"reviewer1"`
	Reviewer2     []string `json:"reviewer2"`
}

// UserService manages accounts. Users are never deleted.
type UserService interface {
	Create(ctx context.Context, s *session.Session, in UserInput) (*entity.User, error)
	Update(ctx context.Context, s *session.Session, uid string, in UserInput) (*entity.User, error)
	Get(ctx context.Context, s *session.Session, uid string) (*entity.User, error)
	List(ctx context.Context, s *session.Session) ([]*entity.User, error)

	// Bootstrap creates the first Super Admin when no account has the email yet
	Bootstrap(ctx context.Context, in UserInput) error
}

type userServiceImpl struct {
	users  port.UserRepository
	now    Clock
	logger Logger
}

// NewUserService creates a new UserService
func NewUserService(users port.UserRepository, now Clock, logger Logger) UserService {
	if now == nil {
		now = time.Now
	}
	return &userServiceImpl{users: users, now: now, logger: logger}
}

func (s *userServiceImpl) Create(ctx context.Context, sess *session.Session, in UserInput) (*entity.User, error) {
	if !sess.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	if err := s.checkGrant(sess, entity.Role(in.Role)); err != nil {
		return nil, err
	}

	user := &entity.User{UID: uuid.NewString()}
	if err := s.apply(ctx, user, in, true); err != nil {
		return nil, err
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, port.ErrDuplicate) {
			return nil, fmt.Errorf("email %s is already registered: %w", user.Email, err)
		}
		s.logger.Error("Failed to create user", "error", err, "email", user.Email)
		return nil, err
	}

	s.logger.Info("User created", "uid", user.UID, "role", user.Role, "by", sess.UID)
	return user, nil
}

func (s *userServiceImpl) Update(ctx context.Context, sess *session.Session, uid string, in UserInput) (*entity.User, error) {
	if !sess.Role.CanManageUsers() {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.Role != entity.Role(in.Role) {
		if err := s.checkGrant(sess, entity.Role(in.Role)); err != nil {
			return nil, err
		}
	}
	if user.Role == entity.RoleSuperAdmin && sess.Role != entity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: only a Super Admin may edit a Super Admin", ErrForbidden)
	}

	if err := s.apply(ctx, user, in, false); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", "error", err, "uid", uid)
		return nil, err
	}

	s.logger.Info("User updated", "uid", uid, "by", sess.UID)
	return user, nil
}

func (s *userServiceImpl) Get(ctx context.Context, sess *session.Session, uid string) (*entity.User, error) {
	if uid != sess.UID && !sess.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	return s.users.GetByUID(ctx, uid)
}

func (s *userServiceImpl) List(ctx context.Context, sess *session.Session) ([]*entity.User, error) {
	if !sess.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

func (s *userServiceImpl) Bootstrap(ctx context.Context, in UserInput) error {
	_, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		return err
	}

	in.Role = string(entity.RoleSuperAdmin)
	user := &entity.User{UID: uuid.NewString()}
	if err := s.apply(ctx, user, in, true); err != nil {
		return err
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create bootstrap user: %w", err)
	}
	s.logger.Info("Bootstrap Super Admin created", "uid", user.UID, "email", user.Email)
	return nil
}

// checkGrant stops an Admin from handing out Super Admin
func (s *userServiceImpl) checkGrant(sess *session.Session, role entity.Role) error {
	if role == entity.RoleSuperAdmin && sess.Role != entity.RoleSuperAdmin {
		return fmt.Errorf("%w: only a Super Admin may grant the Super Admin role", ErrForbidden)
	}
	return nil
}

// apply validates in and copies it onto user
func (s *userServiceImpl) apply(ctx context.Context, user *entity.User, in UserInput, creating bool) error {
	in.Email = normalizeEmail(in.Email)
	verr, err := validate(in)
	if err != nil {
		return err
	}
	if creating && in.Password == "" {
		verr.Add("password", "is required")
	}
	if in.Role != "" && !entity.Role(in.Role).IsValid() {
		verr.Add("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	approvers := []struct {
		field string
		set   []string
	}{
		{"validator", in.Validator},
		{"reviewer1", in.Reviewer1},
		{"reviewer2", in.Reviewer2},
	}
	for _, a := range approvers {
		field, set := a.field, a.set
		if entity.Contains(set, user.UID) {
			verr.Add(field, "a user cannot approve their own documents")
		}
		for _, uid := range set {
			if _, err := s.users.GetByUID(ctx, uid); errors.Is(err, port.ErrNotFound) {
				verr.Add(field, fmt.Sprintf("unknown user %s", uid))
			} else if err != nil {
				return fmt.Errorf("check approver %s: %w", uid, err)
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if !entity.ReviewersDisjoint(in.Reviewer1, in.Reviewer2) {
		return fmt.Errorf("%w: %w", entity.ErrInvalidInput, entity.ErrReviewersOverlap)
	}

	if in.Password != "" {
		hash, err := session.HashPassword(in.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	user.Nama = strings.TrimSpace(in.Nama)
	user.Email = in.Email
	user.Role = entity.Role(in.Role)
	user.Unit = strings.TrimSpace(in.Unit)
	user.Department = in.Department
	user.BankName = in.BankName
	user.AccountNumber = in.AccountNumber
	user.Validator = in.Validator
	user.Reviewer1 = in.Reviewer1
	user.Reviewer2 = in.Reviewer2
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
