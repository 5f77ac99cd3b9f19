// Package config provides configuration loading and defaults for the stash-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// StashConfig holds connection details for the Stash catalog service.
type StashConfig struct {
	// Endpoint is the base URL of the Stash server, e.g. http://stash:9999.
	// The GraphQL path is resolved relative to it.
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	// Timeout is the HTTP request timeout in seconds for catalog queries.
	// Connection tests use their own fixed ceiling.
	Timeout int `yaml:"timeout"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// LoggingConfig selects the diagnostic log format and level.
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Config is the top-level configuration structure for the stash-mcp server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stash   StashConfig   `yaml:"stash"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Keys absent from the file keep the values from DefaultConfig.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Stash: StashConfig{
			Endpoint: "http://localhost:9999",
			Timeout:  30,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - STASH_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - STASH_ENDPOINT overrides cfg.Stash.Endpoint
//   - STASH_API_KEY overrides cfg.Stash.APIKey
//   - STASH_MCP_LOG_LEVEL overrides cfg.Logging.Level
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("STASH_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if endpoint := os.Getenv("STASH_ENDPOINT"); endpoint != "" {
		cfg.Stash.Endpoint = endpoint
	}
	if key := os.Getenv("STASH_API_KEY"); key != "" {
		cfg.Stash.APIKey = key
	}
	if level := os.Getenv("STASH_MCP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate reports every problem found in cfg joined into one error.
// An empty endpoint is allowed; catalog tools are then not registered.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Stash.Timeout < 0 {
		errs = append(errs, fmt.Errorf("stash.timeout must not be negative, got %d", c.Stash.Timeout))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format))
	}
	if c.Audit.Enabled && c.Audit.LogPath == "" {
		errs = append(errs, errors.New("audit.log_path is required when audit is enabled"))
	}
	return errors.Join(errs...)
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
