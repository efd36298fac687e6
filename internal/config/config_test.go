package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: sqlite
  path: /tmp/expense-test.db
workflow:
  validation_step:
    reimbursement: true
    bonSementara: false
    lpj: true
numbering:
  unit_codes:
    Head Office: HO
    Kantor Wilayah: KW
timezone: Asia/Jakarta
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-very-long-session-secret")
	t.Setenv("BOOTSTRAP_EMAIL", "root@example.com")
	t.Setenv("BOOTSTRAP_PASSWORD", "rahasia123")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/expense-test.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "a-very-long-session-secret", cfg.Session.Secret)
	assert.Equal(t, "root@example.com", cfg.Bootstrap.Email)
	assert.Equal(t, "Super Admin", cfg.Bootstrap.Name)
	assert.Len(t, cfg.Workflow.ValidationStep, 3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := Load(writeConfig(t, sampleYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Session:  SessionConfig{Secret: "secret"},
			Timezone: "Asia/Jakarta",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"mongo without uri", func(c *Config) { c.Database.Driver = "mongo" }, "database.mongo.uri"},
		{"no secret", func(c *Config) { c.Session.Secret = "" }, "session.secret"},
		{"unknown doc type", func(c *Config) {
			c.Workflow.ValidationStep = map[string]bool{"invoice": true}
		}, "validation_step"},
		{"lowercased doc type", func(c *Config) {
			c.Workflow.ValidationStep = map[string]bool{"bonsementara": true}
		}, ""},
		{"unit code with digit", func(c *Config) {
			c.Numbering.UnitCodes = map[string]string{"cabang 2": "CB2"}
		}, "numbering.unit_codes"},
		{"unit code too long", func(c *Config) {
			c.Numbering.UnitCodes = map[string]string{"head office": "HEADOF"}
		}, "numbering.unit_codes"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-very-long-session-secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())

	// keys come back in their canonical spelling even though viper lowercases them
	assert.Equal(t, map[string]bool{
		"reimbursement": true,
		"bonSementara":  false,
		"lpj":           true,
	}, cc.Workflow.ValidationStep)
	assert.Equal(t, "HO", cc.Workflow.UnitCodes["head office"])
	assert.Equal(t, "mongodb://localhost:27017", cc.Database.MongoURI)
	assert.Equal(t, "expense", cc.Database.MongoDatabase)
	assert.Equal(t, "data/objects", cc.Storage.BaseDir)
	assert.Equal(t, 9090, cc.Server.Port)
	assert.Equal(t, "Asia/Jakarta", cc.Timezone)
}
