// Package debug provides category-based debug logging for the Codex CLI adapter.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via CODEXCLI_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via CODEXCLI_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log(debug.Backend, "spawn", "binary", bin, "args", args)
//	if debug.Enabled(debug.Backend) { /* expensive formatting */ }
//
// Categories: backend, adapter, loader, streaming, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"unicode/utf8"
)

// Debug categories.
const (
	Backend   = "backend"   // codex process lifecycle and JSONL events
	Adapter   = "adapter"   // request conversion and classification
	Loader    = "loader"    // executable resolution
	Streaming = "streaming" // stream relay
	Config    = "config"
)

var known = []string{Backend, Adapter, Loader, Streaming, Config}

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, prompts and raw JSONL lines are logged in full.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	env := os.Getenv("CODEXCLI_DEBUG")
	categories = parseCategories(env)
}

// Init configures the debug system. Called at startup with values
// from config and/or environment. Environment overrides config.
func Init(configCategories string, configLevel string) {
	// Environment takes precedence over config.
	cats := os.Getenv("CODEXCLI_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	// Configure slog level.
	level := os.Getenv("CODEXCLI_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	if level == "" {
		level = "INFO"
	}

	slogLevel := ParseLevel(level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})))
}

// Enabled reports whether debug output is active for the given category.
// This is a constant-time map lookup with zero allocation.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op (zero overhead).
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when CODEXCLI_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text to stderr without any slog formatting.
// Use this for copy-paste-ready output (raw JSONL lines, full prompts).
// Only emitted when category is enabled AND level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(os.Stderr, text)
}

// levels maps accepted level names to slog levels.
var levels = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// ParseLevel converts a level string to a slog.Level. Unknown and empty
// names yield INFO.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

// ValidLevel reports whether s is empty or a level name ParseLevel knows.
func ValidLevel(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, ok := levels[strings.ToUpper(s)]
	return ok
}

// UnknownCategories returns the entries of a comma-separated category
// list that are not debug categories, in input order.
func UnknownCategories(s string) []string {
	var unknown []string
	for _, cat := range splitCategories(s) {
		if cat != "all" && !slices.Contains(known, cat) {
			unknown = append(unknown, cat)
		}
	}
	return unknown
}

// Categories returns the enabled categories, sorted.
func Categories() []string {
	return slices.Sorted(maps.Keys(categories))
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated. The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range splitCategories(s) {
		m[cat] = true
	}
	return m
}

// splitCategories normalizes a comma-separated list, dropping empty entries.
func splitCategories(s string) []string {
	var out []string
	for _, cat := range strings.Split(s, ",") {
		if cat = strings.TrimSpace(strings.ToLower(cat)); cat != "" {
			out = append(out, cat)
		}
	}
	return out
}
