package config

import (
	"github.com/garyjia/expense-approval/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	validation := make(map[string]bool, len(c.Workflow.ValidationStep))
	for name, enabled := range c.Workflow.ValidationStep {
		if docType, ok := canonicalDocType(name); ok {
			validation[string(docType)] = enabled
		}
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:              c.Database.Driver,
			Path:                c.Database.Path,
			MaxOpenConns:        c.Database.MaxOpenConns,
			MaxIdleConns:        c.Database.MaxIdleConns,
			ConnMaxLifetime:     c.Database.ConnMaxLifetime,
			MongoURI:            c.Database.Mongo.URI,
			MongoDatabase:       c.Database.Mongo.Database,
			MongoConnectTimeout: c.Database.Mongo.ConnectTimeout,
		},
		Storage: container.StorageConfig{
			BaseDir: c.Storage.BaseDir,
		},
		Session: container.SessionConfig{
			Secret:        c.Session.Secret,
			IdleTimeout:   c.Session.IdleTimeout,
			TokenTTL:      c.Session.TokenTTL,
			SweepInterval: c.Session.SweepInterval,
		},
		SMTP: container.SMTPConfig{
			Host:          c.SMTP.Host,
			Port:          c.SMTP.Port,
			Username:      c.SMTP.Username,
			Password:      c.SMTP.Password,
			From:          c.SMTP.From,
			SkipTLSVerify: c.SMTP.SkipTLSVerify,
		},
		Workflow: container.WorkflowConfig{
			ValidationStep: validation,
			UnitCodes:      c.Numbering.UnitCodes,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Timezone: c.Timezone,
		Bootstrap: container.BootstrapConfig{
			Email:    c.Bootstrap.Email,
			Password: c.Bootstrap.Password,
			Name:     c.Bootstrap.Name,
			Unit:     c.Bootstrap.Unit,
		},
	}
}

