// Package config provides YAML-based configuration for the web client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Upload   UploadConfig   `yaml:"upload"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCORS"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// BackendConfig points at the remote analysis/auth service
type BackendConfig struct {
	BaseURL        string `yaml:"baseURL"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// UploadConfig is the upload gate's acceptance policy
type UploadConfig struct {
	MaxBytes     int64  `yaml:"maxBytes"`
	AcceptPrefix string `yaml:"acceptPrefix"`
}

// SessionConfig controls browser sessions
type SessionConfig struct {
	CookieName             string `yaml:"cookieName"`
	TimeoutMinutes         int    `yaml:"timeoutMinutes"`
	CleanupIntervalMinutes int    `yaml:"cleanupIntervalMinutes"`
	SecureCookie           bool   `yaml:"secureCookie"`
}

// LoggingConfig controls the application logger
type LoggingConfig struct {
	Level                string `yaml:"level"`
	Format               string `yaml:"format"` // "text" or "json"
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// SecurityConfig contains throttling settings
type SecurityConfig struct {
	LoginRatePerSecond float64 `yaml:"loginRatePerSecond"`
	LoginBurst         int     `yaml:"loginBurst"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         3000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   false,
			AllowOrigins: "",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "16M",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Upload: UploadConfig{
			MaxBytes:     5 * 1024 * 1024,
			AcceptPrefix: "image/",
		},
		Session: SessionConfig{
			CookieName:             "brickify_session",
			TimeoutMinutes:         60,
			CleanupIntervalMinutes: 5,
			SecureCookie:           false,
		},
		Logging: LoggingConfig{
			Level:                "info",
			Format:               "text",
			EnableRequestLogging: true,
		},
		Security: SecurityConfig{
			LoginRatePerSecond: 1,
			LoginBurst:         5,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults
// there first if the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		return config, config.Validate()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unset keys keep their defaults.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte("# Brickify web client configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot run with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.baseURL must be set")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.maxBytes must be positive")
	}
	if strings.TrimSpace(c.Upload.AcceptPrefix) == "" {
		return fmt.Errorf("upload.acceptPrefix must be set")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookieName must be set")
	}
	if c.Session.TimeoutMinutes <= 0 {
		return fmt.Errorf("session.timeoutMinutes must be positive")
	}
	if c.Session.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("session.cleanupIntervalMinutes must be positive")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if url := os.Getenv("BACKEND_URL"); url != "" {
		c.Backend.BaseURL = url
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// BackendTimeout returns the backend HTTP timeout
func (c *AppConfig) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// SessionTimeout returns the idle session lifetime
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often expired sessions are reaped
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Session.CleanupIntervalMinutes) * time.Minute
}

// AllowedOrigins splits the comma-separated origin list
func (c *AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
