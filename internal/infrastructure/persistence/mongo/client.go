// Package mongo stores users, submissions and drafts in MongoDB, one
// collection per document type.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

const (
	usersCollection  = "users"
	draftsCollection = "drafts"
)

// Config holds MongoDB connection settings
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Client wraps a connected mongo client and its database
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("MongoDB connection established", zap.String("database", cfg.Database))
	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Database returns the configured database
func (c *Client) Database() *mongo.Database {
	return c.db
}

// EnsureIndexes creates the unique and lookup indexes
func (c *Client) EnsureIndexes(ctx context.Context) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := c.db.Collection(usersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	for _, docType := range entity.DocTypes() {
		submissions := []mongo.IndexModel{
			{Keys: bson.D{{Key: "displayId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "user.uid", Value: 1}, {Key: "submittedAt", Value: -1}}},
		}
		if _, err := c.db.Collection(string(docType)).Indexes().CreateMany(ctx, submissions); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", docType, err)
		}
	}

	c.logger.Info("MongoDB indexes ensured")
	return nil
}

// Close disconnects the client
func (c *Client) Close() error {
	c.logger.Info("Closing MongoDB connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// TxManager runs functions without a transaction. Single document writes are
// atomic in MongoDB and the stores only ever write one document per call.
type TxManager struct{}

// WithTransaction calls fn with ctx unchanged
func (TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ port.TransactionManager = TxManager{}
