// ABOUTME: Caltra configuration management with backend selection.
// ABOUTME: Handles the JSON config file, environment overrides, and the storage backend factory.

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harperreed/caltra/internal/storage"
	"github.com/joho/godotenv"
)

const (
	// DefaultUserID owns data written by the CLI and MCP server.
	DefaultUserID = "local"
	// DefaultListenAddr is where the HTTP API listens when neither config nor PORT set it.
	DefaultListenAddr = ":8080"
	// DefaultCORSOrigin is the browser origin allowed when none is configured.
	DefaultCORSOrigin = "http://localhost:3000"
)

// Config stores caltra configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "postgres".
	Backend string `json:"backend,omitempty"`

	// DataDir is the directory holding caltra.db for the sqlite backend.
	// Supports ~ expansion. Defaults to ~/.local/share/caltra.
	DataDir string `json:"data_dir,omitempty"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend.
	DatabaseURL string `json:"database_url,omitempty"`

	// UserID is the account the CLI and MCP server act as.
	UserID string `json:"user_id,omitempty"`

	ListenAddr   string `json:"listen_addr,omitempty"`
	CORSOrigin   string `json:"cors_origin,omitempty"`
	CookieSecure bool   `json:"cookie_secure,omitempty"`
	JWTSecret    string `json:"jwt_secret,omitempty"`

	// Estimation service settings. Empty values fall back to the client defaults.
	APIKey  string `json:"api_key,omitempty"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetUserID returns the local acting user, defaulting to "local".
func (c *Config) GetUserID() string {
	if c.UserID == "" {
		return DefaultUserID
	}
	return c.UserID
}

// GetListenAddr returns the HTTP listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetCORSOrigins splits the comma separated origin list, dropping trailing slashes.
func (c *Config) GetCORSOrigins() []string {
	raw := c.CORSOrigin
	if raw == "" {
		raw = DefaultCORSOrigin
	}
	var origins []string
	for _, p := range strings.Split(raw, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// GetLogLevel returns the configured log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// GetLogFormat returns the configured log format, defaulting to "text".
func (c *Config) GetLogFormat() string {
	if c.LogFormat == "" {
		return "text"
	}
	return c.LogFormat
}

// ApplyEnv loads a .env file from the working directory if present and lets
// environment variables override file settings.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{"CALTRA_BACKEND", &c.Backend},
		{"CALTRA_DATA_DIR", &c.DataDir},
		{"DATABASE_URL", &c.DatabaseURL},
		{"CALTRA_USER_ID", &c.UserID},
		{"OPENROUTER_API_KEY", &c.APIKey},
		{"CALTRA_MODEL", &c.Model},
		{"CALTRA_BASE_URL", &c.BaseURL},
		{"JWT_SECRET", &c.JWTSecret},
		{"CORS_ORIGIN", &c.CORSOrigin},
		{"CALTRA_LOG_LEVEL", &c.LogLevel},
		{"CALTRA_LOG_FORMAT", &c.LogFormat},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.ListenAddr = ":" + port
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = secure
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Repository, error) {
	switch backend := c.GetBackend(); backend {
	case "sqlite":
		return storage.Open(filepath.Join(c.GetDataDir(), "caltra.db"))
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("postgres backend requires database_url or DATABASE_URL")
		}
		return storage.OpenPostgres(ctx, c.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "caltra", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
