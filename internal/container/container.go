package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/session"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger
	loc    *time.Location

	// Infrastructure
	stores   *StoreBundle
	files    port.FileStorage
	notifier port.Notifier

	// Application
	dispatcher dispatcher.Dispatcher
	engine     *approval.Engine
	services   *ServiceBundle
	sessions   *session.Manager

	// Lifecycle
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	sweeperWG sync.WaitGroup
	ready     atomic.Bool
	closed    atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Submissions   service.SubmissionService
	Reviews       service.ReviewService
	Drafts        service.DraftService
	Users         service.UserService
	Dashboard     service.DashboardService
	Exports       service.ExportService
	Attachments   service.AttachmentService
	Notifications service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
		loc:    loc,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database and stores
// 2. Object storage and notifier
// 3. Event dispatcher and approval engine
// 4. Application services
// 5. Sessions and the idle sweeper
// 6. Bootstrap account
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and stores
	stores, err := ProvideStores(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.stores = stores
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	// Step 2: Initialize storage and notifier
	files, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.files = files
	c.notifier = ProvideNotifier(&c.config.SMTP, c.logger)
	c.logger.Info("Storage initialized", zap.String("base_dir", c.config.Storage.BaseDir))

	// Step 3: Initialize dispatcher and approval engine
	c.dispatcher = ProvideDispatcher(c.logger)
	c.engine = ProvideEngine(&c.config.Workflow)
	c.logger.Info("Dispatcher and approval engine initialized")

	// Step 4: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Stores:     c.stores,
		Files:      c.files,
		Notifier:   c.notifier,
		Dispatcher: c.dispatcher,
		Engine:     c.engine,
		Workflow:   &c.config.Workflow,
		Location:   c.loc,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 5: Sessions
	c.sessions = ProvideSessions(&c.config.Session, c.stores.Users, c.logger)
	c.sweeperWG.Add(1)
	go func() {
		defer c.sweeperWG.Done()
		c.sessions.Run(c.ctx, c.config.Session.SweepInterval)
	}()
	c.logger.Info("Session manager started")

	// Step 6: Bootstrap account
	if b := c.config.Bootstrap; b.Email != "" {
		err := c.services.Users.Bootstrap(c.ctx, service.UserInput{
			Nama:     b.Name,
			Email:    b.Email,
			Password: b.Password,
			Role:     string(entity.RoleSuperAdmin),
			Unit:     b.Unit,
		})
		if err != nil {
			return fmt.Errorf("failed to bootstrap super admin: %w", err)
		}
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to stop the session sweeper
	if c.cancel != nil {
		c.cancel()
	}
	c.sweeperWG.Wait()

	// Close dispatcher so queued notifications finish before the stores go away
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.stores != nil {
		if err := c.stores.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.stores != nil {
		if err := c.stores.Ping(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.services != nil {
		status.Components["services"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["services"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// Getters for accessing container components

// Stores returns the document stores.
func (c *Container) Stores() *StoreBundle {
	return c.stores
}

// FileStorage returns the object storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.files
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Engine returns the approval engine.
func (c *Container) Engine() *approval.Engine {
	return c.engine
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Sessions returns the session manager.
func (c *Container) Sessions() *session.Manager {
	return c.sessions
}

// Location returns the configured timezone.
func (c *Container) Location() *time.Location {
	return c.loc
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
