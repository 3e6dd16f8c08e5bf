package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "image/", cfg.Upload.AcceptPrefix)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written to disk")

	// The written file loads back to the same values.
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
backend:
  baseURL: "http://analysis.internal:8000"
upload:
  maxBytes: 1048576
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, "http://analysis.internal:8000", cfg.Backend.BaseURL)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
	assert.Equal(t, "image/", cfg.Upload.AcceptPrefix)
	assert.Equal(t, "brickify_session", cfg.Session.CookieName)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PORT", "7070")
	t.Setenv("BACKEND_URL", "http://env-backend:8000")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://env-backend:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [unclosed"},
		{"bad port", "server:\n  port: 70000\n"},
		{"empty backend", "backend:\n  baseURL: \"\"\n"},
		{"zero upload limit", "upload:\n  maxBytes: 0\n"},
		{"zero cleanup interval", "session:\n  cleanupIntervalMinutes: 0\n"},
		{"empty accept prefix", "upload:\n  acceptPrefix: \"\"\n"},
		{"blank accept prefix", "upload:\n  acceptPrefix: \"  \"\n"},
		{"zero session timeout", "session:\n  timeoutMinutes: 0\n"},
		{"negative session timeout", "session:\n  timeoutMinutes: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestAppConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:3000", cfg.GetServerAddr())
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout())
	assert.Equal(t, time.Hour, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())

	cfg.Server.AllowOrigins = " http://a.example , http://b.example,"
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
}
