// Package config provides unified configuration for the Codex CLI adapter.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. .env file (variables already set in the environment win)
//  4. Environment variable overrides (CODEXCLI_ prefix)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/rhuss/codexcli/pkg/backend"
)

// Config holds all configuration for the adapter and its CLI.
type Config struct {
	Codex         CodexConfig         `yaml:"codex"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// CodexConfig holds the backend executable and default request settings.
type CodexConfig struct {
	Binary       string        `yaml:"binary"`        // default: "codex" (looked up on PATH)
	GracePeriod  time.Duration `yaml:"grace_period"`  // SIGTERM to SIGKILL, default: 5s
	DefaultModel string        `yaml:"default_model"` // default: "gpt-5-codex"
	APIKey       string        `yaml:"api_key"`       // optional, codex login is the usual path
	APIKeyFile   string        `yaml:"api_key_file"`  // _file variant for api_key

	// Settings apply to every request.
	Settings backend.Settings `yaml:"settings"`

	// CommandSettings override Settings for a named command (e.g., "generate").
	CommandSettings map[string]backend.Settings `yaml:"command_settings"`
}

// LoggingConfig holds debug logging settings. CODEXCLI_DEBUG and
// CODEXCLI_LOG_LEVEL take precedence.
type LoggingConfig struct {
	Debug string `yaml:"debug"` // comma-separated categories, or "all"
	Level string `yaml:"level"` // TRACE, DEBUG, INFO, WARN, ERROR
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: ":9464"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Codex: CodexConfig{
			Binary:       "codex",
			GracePeriod:  5 * time.Second,
			DefaultModel: "gpt-5-codex",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: ":9464",
				Path: "/metrics",
			},
		},
	}
}

// SettingsForCommand returns the global settings merged with the
// overrides configured for command. Unknown or empty command names yield
// the global settings. The result is a copy.
func (c *Config) SettingsForCommand(command string) backend.Settings {
	if override, ok := c.Codex.CommandSettings[command]; ok && command != "" {
		return c.Codex.Settings.Merge(override)
	}
	return c.Codex.Settings.Clone()
}
