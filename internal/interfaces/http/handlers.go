package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/session"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	sessions Sessions
	svc      Services
	loc      *time.Location
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(sessions Sessions, services Services, loc *time.Location, logger Logger) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{
		sessions: sessions,
		svc:      services,
		loc:      loc,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest is the body of POST /api/v1/sessions
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token for later requests
type LoginResponse struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Login handles POST /api/v1/sessions
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "email and password are required"})
		return
	}

	token, sess, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: LoginResponse{Token: token, Session: sess}})
}

// Logout handles DELETE /api/v1/sessions
func (h *Handlers) Logout(c *gin.Context) {
	sess := mustSession(c)
	h.sessions.Logout(sess.ID)
	c.JSON(http.StatusOK, Response{Success: true})
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	sess := mustSession(c)
	user, err := h.svc.Users.Get(c.Request.Context(), sess, sess.UID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// mustSession returns the session the auth middleware stored
func mustSession(c *gin.Context) *session.Session {
	sess, _ := session.FromGin(c)
	return sess
}

// fail writes the error envelope with the status the error maps to
func (h *Handlers) fail(c *gin.Context, err error) {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "validation failed", Data: verr})
	case errors.Is(err, session.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, approval.ErrNotPermitted):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
	case errors.Is(err, port.ErrConcurrentModification), errors.Is(err, port.ErrDuplicate):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
