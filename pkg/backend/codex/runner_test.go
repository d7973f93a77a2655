package codex

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/backend/codex/codextest"
)

// fakeRunner re-execs the test binary as the fake codex CLI.
func fakeRunner(opts ...Option) *Runner {
	opts = append([]Option{
		WithEnv(map[string]string{codextest.EnvFake: "1"}),
		WithGracePeriod(2 * time.Second),
	}, opts...)
	return NewRunner(os.Args[0], opts...)
}

// collect drains ch, failing the test if it stays open too long.
func collect(t *testing.T, ch <-chan backend.Event) []backend.Event {
	t.Helper()
	var events []backend.Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("event channel not closed; got %d events", len(events))
			return nil
		}
	}
}

func runQuery(t *testing.T, r *Runner, q backend.Query) []backend.Event {
	t.Helper()
	ch, err := r.Query(context.Background(), q)
	require.NoError(t, err)
	return collect(t, ch)
}

func TestRunner_DefaultTurn(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: "say hello", SystemPrompt: "be brief"})

	require.Len(t, events, 2)
	assert.Equal(t, backend.TextDelta{Text: "Hello from fake codex"}, events[0])
	assert.Equal(t, backend.Result{
		Subtype:   "success",
		Usage:     &backend.Usage{InputTokens: 4, OutputTokens: 10},
		SessionID: codextest.ThreadID,
	}, events[1])
}

func TestRunner_MultipleMessages(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerMulti})

	require.Len(t, events, 4)
	assert.Equal(t, backend.TextDelta{Text: "one"}, events[0])
	assert.Equal(t, backend.TextDelta{Text: "two"}, events[1])
	assert.Equal(t, backend.TextDelta{Text: "three"}, events[2])
	assert.IsType(t, backend.Result{}, events[3])
}

func TestRunner_SDKEnvelope(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerSDKEnvelope})

	require.Len(t, events, 2)
	assert.Equal(t, backend.TextDelta{Text: "Hello"}, events[0])
	assert.Equal(t, backend.Result{
		Subtype: "done",
		Usage:   &backend.Usage{InputTokens: 5, OutputTokens: 10},
	}, events[1])
}

func TestRunner_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerGarbage})

	require.Len(t, events, 2)
	assert.Equal(t, backend.TextDelta{Text: "Hello from fake codex"}, events[0])
	assert.IsType(t, backend.Result{}, events[1])
}

func TestRunner_TransientErrorThenSuccess(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerRetryError})

	require.Len(t, events, 2)
	assert.Equal(t, backend.TextDelta{Text: "recovered"}, events[0])
	assert.IsType(t, backend.Result{}, events[1])
}

func TestRunner_TurnFailed(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerAuthError})

	require.Len(t, events, 1)
	sig, ok := events[0].(backend.ErrorSignal)
	require.True(t, ok, "got %T", events[0])
	assert.Contains(t, sig.Message, "401")
	assert.Contains(t, sig.Message, "not logged in")
}

func TestRunner_CrashReportsExitError(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerCrash})

	require.Len(t, events, 1)
	sig, ok := events[0].(backend.ErrorSignal)
	require.True(t, ok, "got %T", events[0])

	var exitErr *ExitError
	require.ErrorAs(t, sig, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "fatal: model provider exploded")
	assert.Equal(t, "codex exited with code 3: fatal: model provider exploded", sig.Message)
}

func TestRunner_CleanExitWithoutTerminal(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{Prompt: codextest.MarkerNoResult})

	require.Len(t, events, 1)
	assert.Equal(t, backend.TextDelta{Text: "partial"}, events[0])
}

func TestRunner_PassesFlagsAndModel(t *testing.T) {
	t.Parallel()

	events := runQuery(t, fakeRunner(), backend.Query{
		Prompt:   codextest.MarkerEchoArgs,
		Model:    "gpt-5",
		Settings: backend.Settings{Sandbox: "read-only"},
	})

	require.NotEmpty(t, events)
	assert.Equal(t, backend.TextDelta{Text: "exec --json -m gpt-5 --sandbox read-only -"}, events[0])
}

func TestRunner_SettingsEnvOverridesRunnerEnv(t *testing.T) {
	t.Parallel()

	r := fakeRunner(WithEnv(map[string]string{
		codextest.EnvFake:    "1",
		codextest.EchoEnvVar: "from-runner",
	}))

	events := runQuery(t, r, backend.Query{Prompt: codextest.MarkerEchoEnv})
	require.NotEmpty(t, events)
	assert.Equal(t, backend.TextDelta{Text: "from-runner"}, events[0])

	events = runQuery(t, r, backend.Query{
		Prompt:   codextest.MarkerEchoEnv,
		Settings: backend.Settings{Env: map[string]string{codextest.EchoEnvVar: "from-settings"}},
	})
	require.NotEmpty(t, events)
	assert.Equal(t, backend.TextDelta{Text: "from-settings"}, events[0])
}

func TestRunner_CancelAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := fakeRunner().Query(ctx, backend.Query{Prompt: codextest.MarkerHang})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, backend.TextDelta{Text: "waiting"}, ev)
	case <-time.After(30 * time.Second):
		t.Fatal("no first event")
	}

	cancel()
	events := collect(t, ch)

	require.Len(t, events, 1)
	sig, ok := events[0].(backend.ErrorSignal)
	require.True(t, ok, "got %T", events[0])
	assert.True(t, backend.IsAbort(sig))
	assert.ErrorIs(t, sig, context.Canceled)
}

func TestRunner_SettingsTimeout(t *testing.T) {
	t.Parallel()

	ch, err := fakeRunner().Query(context.Background(), backend.Query{
		Prompt:   codextest.MarkerHang,
		Settings: backend.Settings{Timeout: 500 * time.Millisecond},
	})
	require.NoError(t, err)

	events := collect(t, ch)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	sig, ok := last.(backend.ErrorSignal)
	require.True(t, ok, "got %T", last)
	assert.True(t, backend.IsAbort(sig))
	assert.ErrorIs(t, sig, context.DeadlineExceeded)
}

func TestRunner_StartFailure(t *testing.T) {
	t.Parallel()

	r := NewRunner("/nonexistent/path/to/codex")
	ch, err := r.Query(context.Background(), backend.Query{Prompt: "hi"})
	assert.Nil(t, ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codex: start:")
}

func TestRunner_Version(t *testing.T) {
	t.Parallel()

	v, err := fakeRunner().Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, codextest.Version, v)
}

func TestResolver(t *testing.T) {
	t.Parallel()

	resolve := Resolver(os.Args[0], WithEnv(map[string]string{codextest.EnvFake: "1"}))
	h, err := resolve()
	require.NoError(t, err)
	assert.Equal(t, codextest.Version, h.Version(context.Background()))
	assert.NotEmpty(t, h.Binary)
	require.NotNil(t, h.Query)
	assert.True(t, h.Aborted(&backend.AbortError{Cause: context.Canceled}))

	ch, err := h.Query(context.Background(), backend.Query{Prompt: "hello"})
	require.NoError(t, err)
	events := collect(t, ch)
	require.Len(t, events, 2)
}

func TestResolver_DoesNotWaitForVersion(t *testing.T) {
	t.Parallel()

	resolve := Resolver(os.Args[0], WithEnv(map[string]string{
		codextest.EnvFake:        "1",
		codextest.EnvVersionHang: "1",
	}))

	start := time.Now()
	h, err := resolve()
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start = time.Now()
	assert.Empty(t, h.Version(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolver_NotInstalled(t *testing.T) {
	t.Parallel()

	h, err := Resolver("codexcli-test-no-such-binary")()
	assert.Nil(t, h)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrNotInstalled))
}
