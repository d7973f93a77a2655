package codex

import (
	"os"
	"slices"
	"strings"

	"github.com/rhuss/codexcli/pkg/backend"
)

const (
	subcmdExec = "exec"
	flagJSON   = "--json"

	// stdinPrompt tells codex exec to read the prompt from stdin.
	stdinPrompt = "-"
)

// buildExecArgs builds: codex exec --json [flags] -
//
// The prompt never appears on the command line; it is written to stdin so
// that neither its size nor its content can affect argument parsing.
func buildExecArgs(q backend.Query) []string {
	args := []string{subcmdExec, flagJSON}
	s := q.Settings

	if safeArg(q.Model) {
		args = append(args, "-m", q.Model)
	}
	if safeArg(s.Profile) {
		args = append(args, "-p", s.Profile)
	}
	if safeArg(s.WorkingDir) {
		args = append(args, "--cd", s.WorkingDir)
	}
	if safeArg(s.Sandbox) {
		args = append(args, "--sandbox", s.Sandbox)
	}
	if safeArg(s.OutputSchema) {
		args = append(args, "--output-schema", s.OutputSchema)
	}
	if backend.Enabled(s.FullAuto) {
		args = append(args, "--full-auto")
	}
	if backend.Enabled(s.SkipGitRepoCheck) {
		args = append(args, "--skip-git-repo-check")
	}
	if backend.Enabled(s.Ephemeral) {
		args = append(args, "--ephemeral")
	}
	if safeArg(s.ApprovalPolicy) {
		args = append(args, "-c", "approval_policy="+s.ApprovalPolicy)
	}
	if safeArg(s.ReasoningEffort) {
		args = append(args, "-c", "model_reasoning_effort="+s.ReasoningEffort)
	}

	// Sorted for a deterministic command line.
	keys := make([]string, 0, len(s.ConfigOverrides))
	for k := range s.ConfigOverrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := s.ConfigOverrides[k]
		if !safeArg(k) || strings.Contains(k, "=") || strings.ContainsRune(v, 0) {
			continue
		}
		args = append(args, "-c", k+"="+v)
	}

	return append(args, stdinPrompt)
}

// buildStdin returns the text written to the process's stdin. codex exec
// has no system prompt flag, so system instructions lead the prompt.
func buildStdin(q backend.Query) string {
	if q.SystemPrompt == "" {
		return q.Prompt
	}
	if q.Prompt == "" {
		return q.SystemPrompt
	}
	return q.SystemPrompt + "\n\n" + q.Prompt
}

// safeArg reports whether v can be passed as a flag value: non-empty, not
// flag-like, and free of NUL bytes.
func safeArg(v string) bool {
	return v != "" && !strings.HasPrefix(v, "-") && !strings.ContainsRune(v, 0)
}

// mergeEnv appends extra variables to base in sorted key order. Later
// entries win for duplicate keys.
func mergeEnv(base []string, extras ...map[string]string) []string {
	env := slices.Clone(base)
	for _, extra := range extras {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if k == "" || strings.ContainsAny(k, "=\x00") || strings.ContainsRune(extra[k], 0) {
				continue
			}
			env = append(env, k+"="+extra[k])
		}
	}
	return env
}

// processEnv is the inherited environment; replaced in tests.
var processEnv = os.Environ
