// Package config provides configuration types and loading for the MealsFit
// client. Configuration is file-based (mealsfit.yaml) with environment
// variable overrides under the MEALSFIT_ prefix.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the top-level client configuration.
type Config struct {
	// API configures the backend the Gateway talks to.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// StateDir is the app-private directory holding the credentials file
	// and the offline cache database.
	StateDir string `yaml:"state_dir" mapstructure:"state_dir"`

	// DevMode enables development features (debug logging, request traces).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// APIConfig configures the outbound API Gateway.
type APIConfig struct {
	// BaseURL is the backend origin, without the /api prefix.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each HTTP request (e.g. "30s").
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration_string"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "30s"
	}
	if c.StateDir == "" {
		c.StateDir = "~/.mealsfit"
	}
}

// RequestTimeout returns the parsed API timeout. Validation guarantees the
// string parses; a zero value falls back to 30 seconds.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ResolveStateDir expands a leading "~" in StateDir and creates the
// directory (0700) if it does not exist.
func (c *Config) ResolveStateDir() (string, error) {
	dir := c.StateDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// CredentialsPath returns the credentials file location under the resolved
// state dir.
func CredentialsPath(stateDir string) string {
	return filepath.Join(stateDir, "credentials.json")
}

// CachePath returns the offline cache database location under the resolved
// state dir.
func CachePath(stateDir string) string {
	return filepath.Join(stateDir, "cache.db")
}
