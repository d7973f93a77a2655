package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CODEXCLI_CONFIG env, ./codexcli.yaml, /etc/codexcli/config.yaml)
//  3. .env file (CODEXCLI_ENV_FILE or ./.env), never overriding set variables
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CODEXCLI_CONFIG environment variable
// 3. ./codexcli.yaml in the current directory
// 4. /etc/codexcli/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CODEXCLI_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"codexcli.yaml",
		"/etc/codexcli/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv loads variables from CODEXCLI_ENV_FILE, or ./.env when unset.
// A missing default file is not an error; a missing explicit one is.
func loadDotEnv() error {
	path := os.Getenv("CODEXCLI_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// applyEnvOverrides maps environment variables to config fields. Values
// that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODEXCLI_BINARY"); v != "" {
		cfg.Codex.Binary = v
	}
	if v := os.Getenv("CODEXCLI_MODEL"); v != "" {
		cfg.Codex.DefaultModel = v
	}
	if v := os.Getenv("CODEXCLI_GRACE_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Codex.GracePeriod = d
		}
	}

	// CODEX_CLI_API_KEY is the provider's documented key variable.
	if v := os.Getenv("CODEX_CLI_API_KEY"); v != "" {
		cfg.Codex.APIKey = v
	}
	if v := os.Getenv("CODEXCLI_API_KEY"); v != "" {
		cfg.Codex.APIKey = v
	}

	s := &cfg.Codex.Settings
	if v := os.Getenv("CODEXCLI_SANDBOX"); v != "" {
		s.Sandbox = v
	}
	if v := os.Getenv("CODEXCLI_APPROVAL_POLICY"); v != "" {
		s.ApprovalPolicy = v
	}
	if v := os.Getenv("CODEXCLI_WORKING_DIR"); v != "" {
		s.WorkingDir = v
	}
	if v := os.Getenv("CODEXCLI_PROFILE"); v != "" {
		s.Profile = v
	}
	if v := os.Getenv("CODEXCLI_REASONING_EFFORT"); v != "" {
		s.ReasoningEffort = v
	}
	if v := os.Getenv("CODEXCLI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.Timeout = d
		}
	}
	if v := os.Getenv("CODEXCLI_SKIP_GIT_REPO_CHECK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.SkipGitRepoCheck = &b
		}
	}

	if v := os.Getenv("CODEXCLI_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("CODEXCLI_METRICS_ADDR"); v != "" {
		cfg.Observability.Metrics.Addr = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// codex.api_key_file -> codex.api_key
	if cfg.Codex.APIKeyFile != "" && cfg.Codex.APIKey == "" {
		val, err := readSecretFile(cfg.Codex.APIKeyFile)
		if err != nil {
			return fmt.Errorf("codex.api_key_file: %w", err)
		}
		cfg.Codex.APIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
