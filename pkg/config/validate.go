package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/debug"
)

var (
	validSandboxes        = []string{"read-only", "workspace-write", "danger-full-access"}
	validApprovalPolicies = []string{"untrusted", "on-failure", "on-request", "never"}
	validReasoningEfforts = []string{"minimal", "low", "medium", "high", "xhigh"}
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// codex.binary is required.
	if c.Codex.Binary == "" {
		errs = append(errs, fmt.Errorf("codex.binary is required"))
	}

	if c.Codex.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("codex.grace_period must be >= 0, got %s", c.Codex.GracePeriod))
	}

	errs = append(errs, validateSettings("codex.settings", c.Codex.Settings)...)

	// Sorted so the joined error is deterministic.
	for _, name := range slices.Sorted(maps.Keys(c.Codex.CommandSettings)) {
		errs = append(errs, validateSettings("codex.command_settings."+name, c.Codex.CommandSettings[name])...)
	}

	if unknown := debug.UnknownCategories(c.Logging.Debug); len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("logging.debug has unknown categories: %s", strings.Join(unknown, ", ")))
	}
	if !debug.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level))
	}

	if m := c.Observability.Metrics; m.Enabled {
		if m.Addr == "" {
			errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
		}
		if !strings.HasPrefix(m.Path, "/") {
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", m.Path))
		}
	}

	return errors.Join(errs...)
}

func validateSettings(prefix string, s backend.Settings) []error {
	var errs []error

	if s.Sandbox != "" && !slices.Contains(validSandboxes, s.Sandbox) {
		errs = append(errs, fmt.Errorf("%s.sandbox must be one of %s, got %q", prefix, quoteAll(validSandboxes), s.Sandbox))
	}
	if s.ApprovalPolicy != "" && !slices.Contains(validApprovalPolicies, s.ApprovalPolicy) {
		errs = append(errs, fmt.Errorf("%s.approval_policy must be one of %s, got %q", prefix, quoteAll(validApprovalPolicies), s.ApprovalPolicy))
	}
	if s.ReasoningEffort != "" && !slices.Contains(validReasoningEfforts, s.ReasoningEffort) {
		errs = append(errs, fmt.Errorf("%s.reasoning_effort must be one of %s, got %q", prefix, quoteAll(validReasoningEfforts), s.ReasoningEffort))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be >= 0, got %s", prefix, s.Timeout))
	}

	return errs
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
