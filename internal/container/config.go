// Package container provides dependency injection and lifecycle management
// for the expense approval service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Session configuration
	Session SessionConfig

	// SMTP configuration; an empty host logs notifications instead
	SMTP SMTPConfig

	// Workflow configuration
	Workflow WorkflowConfig

	// Server configuration
	Server ServerConfig

	// Timezone used for display ids, exports and dashboard periods
	Timezone string

	// Bootstrap creates the first Super Admin when its email is absent
	Bootstrap BootstrapConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "mongo"
	Driver string

	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// Mongo settings, used when Driver is "mongo"
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir is the root of attachment and approval sheet objects
	BaseDir string
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	Secret        string
	IdleTimeout   time.Duration
	TokenTTL      time.Duration
	SweepInterval time.Duration
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

// WorkflowConfig holds approval chain and numbering settings.
type WorkflowConfig struct {
	// ValidationStep enables or skips the Validator step per document type
	ValidationStep map[string]bool

	// UnitCodes maps unit names to the code used in display ids
	UnitCodes map[string]string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// BootstrapConfig describes the initial Super Admin account.
type BootstrapConfig struct {
	Email    string
	Password string
	Name     string
	Unit     string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:              DriverSQLite,
			Path:                "data/expense.db",
			MaxOpenConns:        25,
			MaxIdleConns:        5,
			ConnMaxLifetime:     5 * time.Minute,
			MongoDatabase:       "expense",
			MongoConnectTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			BaseDir: "data/objects",
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			TokenTTL:      12 * time.Hour,
			SweepInterval: time.Minute,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Workflow: WorkflowConfig{
			ValidationStep: map[string]bool{
				"reimbursement": true,
				"bonSementara":  true,
				"lpj":           false,
			},
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Timezone: "Asia/Jakarta",
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("database.mongo.uri is required")
		}
		if c.Database.MongoDatabase == "" {
			return fmt.Errorf("database.mongo.database is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverMongo, c.Database.Driver)
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 characters")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive")
	}

	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required when smtp.host is set")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	if c.Bootstrap.Email != "" && c.Bootstrap.Password == "" {
		return fmt.Errorf("bootstrap.password is required when bootstrap.email is set")
	}

	return nil
}
