package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calcd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, int64(10), cfg.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout.Duration())
	assert.Equal(t, 300*time.Second, cfg.IdleTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval.Duration())
	assert.Equal(t, 60*time.Second, cfg.StatsInterval.Duration())
	assert.Equal(t, 10*time.Second, cfg.DrainTimeout.Duration())
	assert.Equal(t, int64(1000), cfg.RequestQuota)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
addr: 0.0.0.0:9000
max_connections: 50
read_timeout: 5s
idle_timeout: 2m
request_quota: 100
log_level: debug
log_format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, int64(50), cfg.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout.Duration())
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout.Duration())
	assert.Equal(t, int64(100), cfg.RequestQuota)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval.Duration())
	assert.Equal(t, 10*time.Second, cfg.DrainTimeout.Duration())
}

func TestLoadBareSeconds(t *testing.T) {
	path := writeConfig(t, "idle_timeout: 120\nread_timeout: 1.5\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout.Duration())
	assert.Equal(t, 1500*time.Millisecond, cfg.ReadTimeout.Duration())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "addr: [not, a, string\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "read_timeout: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load(writeConfig(t, "max_connections: 0\n"))
	assert.ErrorContains(t, err, "max_connections")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }, "addr"},
		{"zero pool", func(c *Config) { c.MaxConnections = 0 }, "max_connections"},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -1 }, "read_timeout"},
		{"zero idle timeout", func(c *Config) { c.IdleTimeout = 0 }, "idle_timeout"},
		{"zero monitor interval", func(c *Config) { c.MonitorInterval = 0 }, "monitor_interval"},
		{"zero stats interval", func(c *Config) { c.StatsInterval = 0 }, "stats_interval"},
		{"zero drain timeout", func(c *Config) { c.DrainTimeout = 0 }, "drain_timeout"},
		{"zero quota", func(c *Config) { c.RequestQuota = 0 }, "request_quota"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.field)
		})
	}
}
