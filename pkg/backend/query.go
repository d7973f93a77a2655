package backend

import (
	"context"
	"maps"
	"time"
)

// Query is a converted, backend-ready request. It is built per call and
// discarded afterwards.
type Query struct {
	// Prompt is the serialized conversation.
	Prompt string

	// SystemPrompt holds the concatenated system messages, or empty.
	SystemPrompt string

	// Model is the backend-native model name, or empty for the backend default.
	Model string

	Settings Settings
}

// QueryFunc starts one request. The returned channel is closed after the
// terminal event. Cancelling ctx aborts the request; the backend then ends
// the stream with an ErrorSignal wrapping an *AbortError.
type QueryFunc func(ctx context.Context, q Query) (<-chan Event, error)

// Settings are the backend-tuning options for the Codex CLI. The zero value
// means "use the CLI's own defaults" for every field.
type Settings struct {
	// Sandbox is the sandbox policy: read-only, workspace-write, danger-full-access.
	Sandbox string `yaml:"sandbox,omitempty"`

	// ApprovalPolicy controls when the CLI asks before running commands:
	// untrusted, on-failure, on-request, never.
	ApprovalPolicy string `yaml:"approval_policy,omitempty"`

	FullAuto         *bool `yaml:"full_auto,omitempty"`
	SkipGitRepoCheck *bool `yaml:"skip_git_repo_check,omitempty"`
	Ephemeral        *bool `yaml:"ephemeral,omitempty"`

	// WorkingDir is the directory the agent operates in.
	WorkingDir string `yaml:"working_dir,omitempty"`

	// Profile selects a profile from the CLI's config.toml.
	Profile string `yaml:"profile,omitempty"`

	// ReasoningEffort: minimal, low, medium, high, xhigh.
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`

	// OutputSchema is a path to a JSON schema file for the final message.
	OutputSchema string `yaml:"output_schema,omitempty"`

	// ConfigOverrides are passed as -c key=value pairs.
	ConfigOverrides map[string]string `yaml:"config_overrides,omitempty"`

	// Env is added to the subprocess environment.
	Env map[string]string `yaml:"env,omitempty"`

	// Timeout bounds one request. Zero means no limit beyond the caller's context.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Merge returns a copy of s with every field that is set in override
// replacing the corresponding field of s. Maps are replaced, not combined.
func (s Settings) Merge(override Settings) Settings {
	out := s.Clone()
	if override.Sandbox != "" {
		out.Sandbox = override.Sandbox
	}
	if override.ApprovalPolicy != "" {
		out.ApprovalPolicy = override.ApprovalPolicy
	}
	if override.FullAuto != nil {
		out.FullAuto = Bool(*override.FullAuto)
	}
	if override.SkipGitRepoCheck != nil {
		out.SkipGitRepoCheck = Bool(*override.SkipGitRepoCheck)
	}
	if override.Ephemeral != nil {
		out.Ephemeral = Bool(*override.Ephemeral)
	}
	if override.WorkingDir != "" {
		out.WorkingDir = override.WorkingDir
	}
	if override.Profile != "" {
		out.Profile = override.Profile
	}
	if override.ReasoningEffort != "" {
		out.ReasoningEffort = override.ReasoningEffort
	}
	if override.OutputSchema != "" {
		out.OutputSchema = override.OutputSchema
	}
	if override.ConfigOverrides != nil {
		out.ConfigOverrides = maps.Clone(override.ConfigOverrides)
	}
	if override.Env != nil {
		out.Env = maps.Clone(override.Env)
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	return out
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.FullAuto != nil {
		out.FullAuto = Bool(*s.FullAuto)
	}
	if s.SkipGitRepoCheck != nil {
		out.SkipGitRepoCheck = Bool(*s.SkipGitRepoCheck)
	}
	if s.Ephemeral != nil {
		out.Ephemeral = Bool(*s.Ephemeral)
	}
	out.ConfigOverrides = maps.Clone(s.ConfigOverrides)
	out.Env = maps.Clone(s.Env)
	return out
}

// Enabled reports whether a tri-state flag is set to true.
func Enabled(b *bool) bool {
	return b != nil && *b
}

// Bool returns a pointer to b, for populating tri-state settings.
func Bool(b bool) *bool {
	return &b
}
