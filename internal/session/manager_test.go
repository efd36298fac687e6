package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

type stubUsers struct {
	byEmail map[string]*entity.User
}

func (s *stubUsers) Create(ctx context.Context, user *entity.User) error { return nil }
func (s *stubUsers) Update(ctx context.Context, user *entity.User) error { return nil }
func (s *stubUsers) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	for _, u := range s.byEmail {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, port.ErrNotFound
}
func (s *stubUsers) List(ctx context.Context) ([]*entity.User, error) { return nil, nil }
func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, port.ErrNotFound
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *clock) {
	t.Helper()
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)

	users := &stubUsers{byEmail: map[string]*entity.User{
		"sari@example.com": {UID: "u-1", Nama: "Sari", Email: "sari@example.com", Role: entity.RoleReviewer, PasswordHash: hash},
	}}
	m := NewManager(Config{Secret: "test-secret", IdleTimeout: 30 * time.Minute, TokenTTL: 12 * time.Hour}, users, zap.NewNop())
	c := &clock{t: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
	m.now = c.now
	return m, c
}

func TestManager_LoginAndAuthenticate(t *testing.T) {
	m, c := newTestManager(t)

	token, s, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "u-1", s.UID)
	assert.Equal(t, entity.RoleReviewer, s.Role)

	c.advance(10 * time.Minute)
	got, err := m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, c.t, got.LastSeen)
	assert.Equal(t, "Sari", got.Actor().Name)
}

func TestManager_LoginRejectsBadCredentials(t *testing.T) {
	m, _ := newTestManager(t)

	_, _, err := m.Login(context.Background(), "sari@example.com", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = m.Login(context.Background(), "nobody@example.com", "rahasia123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestManager_AuthenticateFollowsStoredUser(t *testing.T) {
	m, _ := newTestManager(t)
	users := m.users.(*stubUsers)
	users.byEmail["sari@example.com"].Role = entity.RoleSuperAdmin

	token, s, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)
	require.Equal(t, entity.RoleSuperAdmin, s.Role)

	users.byEmail["sari@example.com"].Role = entity.RoleEmployee
	users.byEmail["sari@example.com"].Unit = "Kantor Wilayah"

	got, err := m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, got.Role)
	assert.Equal(t, "Kantor Wilayah", got.Unit)
	assert.NotEqual(t, entity.RoleSuperAdmin, got.Actor().Role)
}

func TestManager_AuthenticateEndsSessionOfRemovedUser(t *testing.T) {
	m, _ := newTestManager(t)
	token, s, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	delete(m.users.(*stubUsers).byEmail, "sari@example.com")

	_, err = m.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)

	m.mu.Lock()
	_, open := m.sessions[s.ID]
	m.mu.Unlock()
	assert.False(t, open)
}

func TestManager_IdleTimeout(t *testing.T) {
	m, c := newTestManager(t)
	token, _, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	// activity keeps the session alive past one idle period
	c.advance(20 * time.Minute)
	_, err = m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	c.advance(20 * time.Minute)
	_, err = m.Authenticate(context.Background(), token)
	require.NoError(t, err)

	c.advance(31 * time.Minute)
	_, err = m.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)

	// stays expired
	_, err = m.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestManager_Logout(t *testing.T) {
	m, _ := newTestManager(t)
	token, s, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	m.Logout(s.ID)

	_, err = m.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestManager_RejectsForeignToken(t *testing.T) {
	m, _ := newTestManager(t)
	other, _ := newTestManager(t)
	other.secret = []byte("another-secret")

	token, _, err := other.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	_, err = m.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = m.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestManager_Sweep(t *testing.T) {
	m, c := newTestManager(t)
	_, _, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)
	_, _, err = m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	assert.Equal(t, 0, m.Sweep())
	c.advance(time.Hour)
	assert.Equal(t, 2, m.Sweep())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := newTestManager(t)
	token, _, err := m.Login(context.Background(), "sari@example.com", "rahasia123")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", m.Middleware(), func(c *gin.Context) {
		s, ok := FromGin(c)
		require.True(t, ok)
		fromCtx, ok := FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, s.ID, fromCtx.ID)
		c.String(http.StatusOK, s.UID)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.Error(t, CheckPassword(hash, "other"))
}
