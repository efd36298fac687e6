// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/session"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Sessions issues and revokes login sessions
type Sessions interface {
	Login(ctx context.Context, email, password string) (string, *session.Session, error)
	Logout(sessionID string)
	Middleware() gin.HandlerFunc
}

// Services bundles the use cases the handlers call
type Services struct {
	Submissions service.SubmissionService
	Reviews     service.ReviewService
	Drafts      service.DraftService
	Users       service.UserService
	Dashboard   service.DashboardService
	Exports     service.ExportService
	Attachments service.AttachmentService
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Location interprets date-only query parameters
	Location *time.Location
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Location:     time.Local,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	sessions   Sessions
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, sessions Sessions, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = service.MaxAttachmentBytes + 1<<20

	server := &Server{
		config:   config,
		router:   router,
		sessions: sessions,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		kv := []interface{}{
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		}
		if sess, ok := session.FromGin(c); ok {
			kv = append(kv, "uid", sess.UID)
		}
		s.logger.Info("HTTP request", kv...)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.sessions, s.services, s.config.Location, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	api.POST("/sessions", h.Login)

	auth := api.Group("", s.sessions.Middleware())
	{
		auth.DELETE("/sessions", h.Logout)
		auth.GET("/me", h.Me)

		subs := auth.Group("/submissions/:docType")
		subs.POST("", h.Submit)
		subs.GET("", h.ListSubmissions)
		subs.GET("/pending", h.Pending)
		subs.GET("/:id", h.GetSubmission)
		subs.POST("/:id/approve", h.Approve)
		subs.POST("/:id/reject", h.Reject)
		subs.POST("/:id/cancel", h.Cancel)
		subs.POST("/:id/attachments", h.UploadAttachment)
		subs.POST("/:id/approval-sheet", h.ApprovalSheet)

		auth.GET("/exports/:docType", h.Export)

		auth.PUT("/drafts/:draftType", h.SaveDraft)
		auth.GET("/drafts/:draftType", h.LoadDraft)

		auth.GET("/dashboard", h.Dashboard)

		auth.GET("/users", h.ListUsers)
		auth.POST("/users", h.CreateUser)
		auth.GET("/users/:uid", h.GetUser)
		auth.PUT("/users/:uid", h.UpdateUser)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
