package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contraceptive-compass-server/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestManagerDefaults(t *testing.T) {
	m, err := NewManagerFromFile(writeConfig(t, "environment: development\n"))
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, domain.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, domain.FeedbackDriverSQLite, cfg.Feedback.Driver)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 720*time.Hour, cfg.History.Retention)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "contraceptive-compass", cfg.MCP.ServerName)
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())
	assert.False(t, m.NeedsDatabase())
	assert.NoError(t, m.Validate())
}

func TestManagerFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9000
cache:
  backend: redis
  redis_url: redis://cache:6379/1
history:
  enabled: true
  retention: 48h
database:
  host: db
  username: compass
  password: secret
  database: compass
`)
	t.Setenv("COMPASS_SERVER_PORT", "9100")
	t.Setenv("COMPASS_RATE_LIMIT_BURST", "5")

	m, err := NewManagerFromFile(path)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 9100, m.GetServerConfig().Port)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, domain.CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://cache:6379/1", m.GetRedisConnectionString())
	assert.Equal(t, 48*time.Hour, cfg.History.Retention)
	assert.Equal(t, "db", m.GetDatabaseConfig().Host)
	assert.Equal(t,
		"host=db port=5432 user=compass password=secret dbname=compass sslmode=disable",
		m.GetDatabaseConnectionString())
	assert.True(t, m.IsProduction())
	assert.True(t, m.NeedsDatabase())
	assert.NoError(t, m.Validate())
}

func TestManagerMissingExplicitFile(t *testing.T) {
	_, err := NewManagerFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestManagerReload(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8001\n")
	m, err := NewManagerFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8001, m.GetServerConfig().Port)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8002\n"), 0o600))
	require.NoError(t, m.Reload())
	assert.Equal(t, 8002, m.GetServerConfig().Port)
}

func TestManagerValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{"bad port", func(c *domain.Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"bad log level", func(c *domain.Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad cache backend", func(c *domain.Config) { c.Cache.Backend = "memcached" }, "invalid cache backend"},
		{"redis without url", func(c *domain.Config) {
			c.Cache.Backend = domain.CacheBackendRedis
			c.Cache.RedisURL = ""
		}, "Redis URL is required"},
		{"bad feedback driver", func(c *domain.Config) { c.Feedback.Driver = "mysql" }, "invalid feedback driver"},
		{"sqlite without path", func(c *domain.Config) { c.Feedback.SQLitePath = "" }, "sqlite path"},
		{"zero rate", func(c *domain.Config) { c.RateLimit.RequestsPerSecond = 0 }, "rate limit"},
		{"history without db host", func(c *domain.Config) {
			c.History.Enabled = true
			c.Database.Host = ""
		}, "database host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManagerFromFile(writeConfig(t, "{}\n"))
			require.NoError(t, err)

			tt.mutate(m.GetConfig())
			err = m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, closer, err := NewLogger(domain.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger, _, err = NewLogger(domain.LoggingConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, _, err = NewLogger(domain.LoggingConfig{Output: "syslog"})
	assert.Error(t, err)

	_, _, err = NewLogger(domain.LoggingConfig{Output: "file"})
	assert.Error(t, err)
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.log")
	logger, closer, err := NewLogger(domain.LoggingConfig{Level: "info", Output: "file", Filename: path})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
