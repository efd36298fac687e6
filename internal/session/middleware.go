package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ginKey = "session"

// Middleware authenticates the bearer token and puts the session on both
// the gin context and the request context
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			abort(c, ErrUnauthenticated)
			return
		}

		s, err := m.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ginKey, s)
		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// FromGin returns the session set by Middleware
func FromGin(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ginKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

func abort(c *gin.Context, err error) {
	msg := "authentication required"
	if errors.Is(err, ErrExpired) {
		msg = "session expired"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
	})
}
