package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/numbering"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Numbering NumberingConfig `mapstructure:"numbering"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Timezone  string          `mapstructure:"timezone"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Mongo           MongoConfig   `mapstructure:"mongo"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// SessionConfig holds login session configuration
type SessionConfig struct {
	Secret        string        `mapstructure:"secret"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	SkipTLSVerify bool   `mapstructure:"skip_tls_verify"`
}

// WorkflowConfig holds approval chain configuration
type WorkflowConfig struct {
	// ValidationStep is keyed by document type
	ValidationStep map[string]bool `mapstructure:"validation_step"`
}

// NumberingConfig holds display id configuration
type NumberingConfig struct {
	UnitCodes map[string]string `mapstructure:"unit_codes"`
}

// BootstrapConfig holds the first Super Admin account
type BootstrapConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Unit     string `mapstructure:"unit"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is applied to the
// environment first when present.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/expense.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.mongo.database", "expense")
	v.SetDefault("database.mongo.connect_timeout", 10*time.Second)

	v.SetDefault("storage.base_dir", "data/objects")

	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.token_ttl", 12*time.Hour)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("workflow.validation_step", map[string]bool{
		"reimbursement": true,
		"bonSementara":  true,
		"lpj":           false,
	})

	v.SetDefault("bootstrap.name", "Super Admin")
	v.SetDefault("bootstrap.unit", "Head Office")

	v.SetDefault("timezone", "Asia/Jakarta")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"session.secret":     "SESSION_SECRET",
		"database.mongo.uri": "MONGO_URI",
		"smtp.username":      "SMTP_USERNAME",
		"smtp.password":      "SMTP_PASSWORD",
		"bootstrap.email":    "BOOTSTRAP_EMAIL",
		"bootstrap.password": "BOOTSTRAP_PASSWORD",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("database.driver must be sqlite or mongo")
	}
	if c.Database.Driver == "mongo" && c.Database.Mongo.URI == "" {
		return fmt.Errorf("database.mongo.uri is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}

	for name := range c.Workflow.ValidationStep {
		if _, ok := canonicalDocType(name); !ok {
			return fmt.Errorf("workflow.validation_step: unknown document type %q", name)
		}
	}

	for unit, code := range c.Numbering.UnitCodes {
		if !numbering.IsUnitCode(code) {
			return fmt.Errorf("numbering.unit_codes: %q for %q must be 2-5 letters A-Z", code, unit)
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	return nil
}

// canonicalDocType matches a document type name regardless of case; viper
// lowercases map keys
func canonicalDocType(name string) (entity.DocType, bool) {
	for _, d := range entity.DocTypes() {
		if strings.EqualFold(string(d), name) {
			return d, true
		}
	}
	return "", false
}
