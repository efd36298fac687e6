package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Config holds session settings
type Config struct {
	Secret string
	// IdleTimeout expires a session not used for this long
	IdleTimeout time.Duration
	// TokenTTL bounds a token's lifetime regardless of activity
	TokenTTL time.Duration
}

// Claims is the signed token body. The token ID is the session ID.
type Claims struct {
	Role entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues, validates and expires sessions
type Manager struct {
	users  port.UserRepository
	secret []byte
	idle   time.Duration
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(cfg Config, users port.UserRepository, logger *zap.Logger) *Manager {
	return &Manager{
		users:    users,
		secret:   []byte(cfg.Secret),
		idle:     cfg.IdleTimeout,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Login checks the password and opens a session
func (m *Manager) Login(ctx context.Context, email, password string) (string, *Session, error) {
	user, err := m.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, port.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := m.now()
	s := &Session{
		ID:       uuid.NewString(),
		UID:      user.UID,
		Name:     user.Nama,
		Email:    user.Email,
		Role:     user.Role,
		Unit:     user.Unit,
		IssuedAt: now,
		LastSeen: now,
	}

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session opened", zap.String("uid", s.UID), zap.String("role", string(s.Role)))
	copied := *s
	return token, &copied, nil
}

// Authenticate validates a token and marks its session as used. The user is
// reread on every call so role and profile changes apply to open sessions;
// a user that no longer exists ends the session.
func (m *Manager) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	now := m.now()
	m.mu.Lock()
	s, ok := m.sessions[claims.ID]
	if ok && now.Sub(s.LastSeen) > m.idle {
		delete(m.sessions, claims.ID)
		m.logger.Info("Session idled out", zap.String("uid", s.UID))
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrExpired
	}

	user, err := m.users.GetByUID(ctx, s.UID)
	if errors.Is(err, port.ErrNotFound) {
		m.Logout(claims.ID)
		return nil, ErrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok = m.sessions[claims.ID]
	if !ok {
		return nil, ErrExpired
	}
	if s.Role != user.Role {
		m.logger.Info("Session role refreshed",
			zap.String("uid", s.UID),
			zap.String("from", string(s.Role)),
			zap.String("to", string(user.Role)),
		)
	}
	s.Name, s.Email, s.Role, s.Unit = user.Nama, user.Email, user.Role, user.Unit
	s.LastSeen = now

	copied := *s
	return &copied, nil
}

// Logout ends a session. Requests already in flight are not affected.
func (m *Manager) Logout(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		m.logger.Info("Session closed", zap.String("uid", s.UID))
	}
}

// Sweep drops idle sessions and returns how many were removed
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen) > m.idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("Swept idle sessions", zap.Int("count", n))
			}
		}
	}
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a password
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
