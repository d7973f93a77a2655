package codexcli

import (
	"context"
	"errors"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/backend/codex"
	"github.com/rhuss/codexcli/pkg/debug"
)

// errIncompleteStream is reported when the backend stream closes without
// a result or error event.
var errIncompleteStream = errors.New("Codex CLI stream ended before a result was received")

// maxStderrMeta bounds the stderr tail attached to error metadata.
const maxStderrMeta = 1024

// authPatterns are matched case-insensitively against the error message
// and stderr.
var authPatterns = []string{
	"not logged in",
	"unauthorized",
	"authentication",
	"invalid api key",
	"please login",
	"codex login",
}

// authStatus matches 401 and 403 only as HTTP status tokens, so timestamps,
// token counts and delays that contain the digits are not mistaken for them.
var authStatus = regexp.MustCompile(`(?i)\b(?:status|http(?:/[\d.]+)?|code)\W{0,3}40[13]\b|\b40[13]\W{0,3}(?:unauthorized|forbidden)\b`)

var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

// ClassifyError maps a backend failure to a *api.ProviderError. meta is
// copied and extended with exit code, backend error code and stderr when
// err carries them. Errors that are already classified are returned as is.
func ClassifyError(err error, meta map[string]string) *api.ProviderError {
	return classify(err, backend.IsAbort, meta)
}

func classify(err error, aborted func(error) bool, meta map[string]string) *api.ProviderError {
	if err == nil {
		return nil
	}
	var pe *api.ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	m := maps.Clone(meta)
	if m == nil {
		m = make(map[string]string)
	}

	var stderr string
	var exitErr *codex.ExitError
	if errors.As(err, &exitErr) {
		m[api.MetaExitCode] = strconv.Itoa(exitErr.Code)
		if exitErr.Stderr != "" {
			stderr = exitErr.Stderr
			m[api.MetaStderr] = debug.Truncate(strings.TrimSpace(stderr), maxStderrMeta)
		}
	}
	var sig backend.ErrorSignal
	if errors.As(err, &sig) && sig.Code != "" {
		m[api.MetaCode] = sig.Code
	}

	msg := err.Error()

	switch {
	case errors.Is(err, backend.ErrNotInstalled):
		return api.NewNotInstalledError(err, m)
	case isAuthFailure(msg) || isAuthFailure(stderr):
		return api.NewAuthenticationError("Codex CLI authentication failed: "+msg, err, m)
	case errors.Is(err, context.DeadlineExceeded) || matchesAny(msg, timeoutPatterns):
		return api.NewTimeoutError("Codex CLI request timed out: "+msg, err, m)
	case aborted(err) || errors.Is(err, context.Canceled):
		return api.NewTimeoutError("Codex CLI request was aborted: "+msg, err, m)
	default:
		return api.NewAPICallError("Codex CLI error: "+msg, err, m)
	}
}

func isAuthFailure(s string) bool {
	return matchesAny(s, authPatterns) || authStatus.MatchString(s)
}

func matchesAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
