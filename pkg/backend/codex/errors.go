package codex

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// maxErrorLen bounds error messages taken from backend output.
	maxErrorLen = 4096

	// stderrTailSize is how much trailing stderr is kept for diagnostics.
	stderrTailSize = 8192
)

// ExitError reports a codex process that exited unsuccessfully before
// completing its turn.
type ExitError struct {
	// Code is the exit status, or -1 if the process did not exit normally.
	Code int

	// Stderr is the trailing output the process wrote to stderr.
	Stderr string

	Err error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("codex exited with code %d", e.Code)
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// wrapExitError converts an exec.Cmd.Wait error into an *ExitError carrying
// the stderr tail.
func wrapExitError(err error, stderr string) *ExitError {
	ee := &ExitError{Code: -1, Stderr: stderr, Err: err}
	var execErr *exec.ExitError
	if errors.As(err, &execErr) {
		ee.Code = execErr.ExitCode()
	}
	return ee
}

// truncate limits s to maxErrorLen bytes without splitting a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	cut := maxErrorLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

// lastLine returns the last non-blank line of s. Stderr is kept as a tail,
// so its first line may be cut.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// tailBuffer is an io.Writer that keeps only the last limit bytes written.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
