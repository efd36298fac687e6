// Package session replaces ambient "who is logged in" state with an explicit
// Session carried on the request context. A signed token names a server-side
// session that expires after a period of inactivity or on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var (
	// ErrUnauthenticated means no valid session accompanies the request
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials means the email or password did not match
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

	// ErrExpired means the session idled out or was logged out
	ErrExpired = fmt.Errorf("%w: session expired", ErrUnauthenticated)
)

// Session is the identity of a logged in user
type Session struct {
	ID       string      `json:"id"`
	UID      string      `json:"uid"`
	Name     string      `json:"nama"`
	Email    string      `json:"email"`
	Role     entity.Role `json:"role"`
	Unit     string      `json:"unit"`
	IssuedAt time.Time   `json:"issuedAt"`
	LastSeen time.Time   `json:"lastSeen"`
}

// Actor is the session as an approval chain participant
func (s *Session) Actor() approval.Actor {
	return approval.Actor{UID: s.UID, Name: s.Name, Role: s.Role}
}

type contextKey struct{}

// WithSession returns a context carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session carried by ctx
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
