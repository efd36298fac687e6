package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/numbering"
	"github.com/garyjia/expense-approval/internal/export"
	"github.com/garyjia/expense-approval/internal/infrastructure/notify"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/mongo"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-approval/internal/infrastructure/storage"
	"github.com/garyjia/expense-approval/internal/session"
	"github.com/garyjia/expense-approval/migrations"
	"github.com/garyjia/expense-approval/pkg/database"
	"github.com/garyjia/expense-approval/pkg/utils"
)

// StoreBundle holds the document stores of the selected backend.
type StoreBundle struct {
	Users       port.UserRepository
	Submissions port.SubmissionRepository
	Drafts      port.DraftRepository
	TxManager   port.TransactionManager

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the backend connection.
func (b *StoreBundle) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close releases the backend connection.
func (b *StoreBundle) Close() error {
	return b.close()
}

// ProvideStores opens the configured backend and builds its stores.
// SQLite databases are migrated from the embedded schema.
func ProvideStores(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case DriverMongo:
		return provideMongoStores(ctx, cfg, logger)
	default:
		return provideSQLiteStores(cfg, logger)
	}
}

func provideSQLiteStores(cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := sqlite.NewDB(db.DB, logger)
	return &StoreBundle{
		Users:       sqlite.NewUserStore(store, logger),
		Submissions: sqlite.NewSubmissionStore(store, logger),
		Drafts:      sqlite.NewDraftStore(store, logger),
		TxManager:   store,
		ping:        db.PingContext,
		close:       db.Close,
	}, nil
}

func provideMongoStores(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	client, err := mongo.Connect(ctx, mongo.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := client.EnsureIndexes(ctx); err != nil {
		client.Close()
		return nil, err
	}

	db := client.Database()
	return &StoreBundle{
		Users:       mongo.NewUserStore(db, logger),
		Submissions: mongo.NewSubmissionStore(db, logger),
		Drafts:      mongo.NewDraftStore(db, logger),
		TxManager:   mongo.TxManager{},
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: client.Close,
	}, nil
}

// ProvideStorage creates the object storage for attachments and approval sheets.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.BaseDir == "" {
		return nil, fmt.Errorf("storage base dir is required")
	}
	return storage.NewLocalFileStorage(cfg.BaseDir, logger), nil
}

// ProvideNotifier creates the SMTP notifier, or a log notifier when no host is set.
func ProvideNotifier(cfg *SMTPConfig, logger *zap.Logger) port.Notifier {
	if cfg == nil || cfg.Host == "" {
		logger.Info("SMTP host not configured, notifications are logged only")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewMailNotifier(notify.SMTPConfig{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Username:      cfg.Username,
		Password:      cfg.Password,
		From:          cfg.From,
		SkipTLSVerify: cfg.SkipTLSVerify,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher. Queued handlers send mail,
// so each run is bounded by the SMTP dial and send time.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger)),
		dispatcher.WithWorkers(4),
		dispatcher.WithHandlerTimeout(time.Minute),
	)
}

// ProvideEngine creates the approval engine with the configured validation steps.
func ProvideEngine(cfg *WorkflowConfig) *approval.Engine {
	return approval.NewEngine(approval.PoliciesFromConfig(cfg.ValidationStep))
}

// ProvideSessions creates the session manager.
func ProvideSessions(cfg *SessionConfig, users port.UserRepository, logger *zap.Logger) *session.Manager {
	return session.NewManager(session.Config{
		Secret:      cfg.Secret,
		IdleTimeout: cfg.IdleTimeout,
		TokenTTL:    cfg.TokenTTL,
	}, users, logger)
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Stores     *StoreBundle
	Files      port.FileStorage
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	Engine     *approval.Engine
	Workflow   *WorkflowConfig
	Location   *time.Location
	Logger     *zap.Logger
}

// ProvideServices creates all application services and registers the
// notification subscribers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Stores == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := utils.NewKVLogger(deps.Logger)
	loc := deps.Location
	now := func() time.Time { return time.Now().In(loc) }

	numbers := numbering.NewGenerator(
		numbering.WithUnitCodes(deps.Workflow.UnitCodes),
		numbering.WithClock(now),
	)
	exporter := export.NewExporter(loc, deps.Logger)

	notifications := service.NewNotificationService(deps.Stores.Users, deps.Engine, deps.Notifier, kv)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Submissions:   service.NewSubmissionService(deps.Stores.Submissions, deps.Stores.Users, deps.Stores.TxManager, numbers, deps.Dispatcher, now, kv),
		Reviews:       service.NewReviewService(deps.Stores.Submissions, deps.Engine, deps.Dispatcher, now, kv),
		Drafts:        service.NewDraftService(deps.Stores.Drafts, deps.Dispatcher, now, kv),
		Users:         service.NewUserService(deps.Stores.Users, now, kv),
		Dashboard:     service.NewDashboardService(deps.Stores.Submissions, loc, now, kv),
		Exports:       service.NewExportService(deps.Stores.Submissions, deps.Files, exporter, now, kv),
		Attachments:   service.NewAttachmentService(deps.Stores.Submissions, deps.Files, now, kv),
		Notifications: notifications,
	}, nil
}
