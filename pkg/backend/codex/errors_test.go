package codex

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{"no stderr", &ExitError{Code: 2}, "codex exited with code 2"},
		{"stderr last line", &ExitError{Code: 3, Stderr: "\nstarting session\nfatal: boom\n\n"}, "codex exited with code 3: fatal: boom"},
		{"cut tail", &ExitError{Code: 1, Stderr: "ted output line\nERROR: stream disconnected\n"}, "codex exited with code 1: ERROR: stream disconnected"},
		{"crlf", &ExitError{Code: 1, Stderr: "note\r\nfatal: boom\r\n"}, "codex exited with code 1: fatal: boom"},
		{"signal", &ExitError{Code: -1, Stderr: "   "}, "codex exited with code -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapExitError_NonExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("wait failed")
	ee := wrapExitError(cause, "tail")
	assert.Equal(t, -1, ee.Code)
	assert.Equal(t, "tail", ee.Stderr)
	assert.ErrorIs(t, ee, cause)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	short := "short message"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("é", maxErrorLen)
	got := truncate(long)
	assert.True(t, strings.HasSuffix(got, "...[truncated]"))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxErrorLen+len("...[truncated]"))
}

func TestTailBuffer(t *testing.T) {
	t.Parallel()

	tb := newTailBuffer(8)
	_, _ = tb.Write([]byte("hello "))
	_, _ = tb.Write([]byte("world"))
	assert.Equal(t, "lo world", tb.String())

	n, err := tb.Write([]byte("0123456789"))
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "23456789", tb.String())
}

func TestTailBuffer_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	tb := newTailBuffer(64)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = tb.Write([]byte("x"))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, strings.Repeat("x", 64), tb.String())
}
