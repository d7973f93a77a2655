package codex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/debug"
)

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "codex"

const (
	defaultGracePeriod = 5 * time.Second
	defaultMaxLineSize = 10 * 1024 * 1024
	initialLineBuffer  = 64 * 1024
	outputBuffer       = 16
)

// Runner starts codex exec processes. A Runner is safe for concurrent use;
// each Query owns its own process.
type Runner struct {
	binary      string
	gracePeriod time.Duration
	maxLineSize int
	env         map[string]string
}

// Option configures a Runner.
type Option func(*Runner)

// WithGracePeriod sets how long a cancelled process may take to exit after
// SIGTERM before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.gracePeriod = d
		}
	}
}

// WithMaxLineSize bounds a single JSONL line.
func WithMaxLineSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxLineSize = n
		}
	}
}

// WithEnv adds variables to every process's environment. Per-query
// settings take precedence.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// NewRunner returns a Runner for the given executable path.
func NewRunner(binary string, opts ...Option) *Runner {
	r := &Runner{
		binary:      binary,
		gracePeriod: defaultGracePeriod,
		maxLineSize: defaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Query starts one codex exec process and returns its events. The channel
// is closed when the process has exited and its output is consumed.
func (r *Runner) Query(ctx context.Context, q backend.Query) (<-chan backend.Event, error) {
	var cancel context.CancelFunc
	if q.Settings.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.Settings.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	args := buildExecArgs(q)
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.gracePeriod
	cmd.Env = mergeEnv(processEnv(), r.env, q.Settings.Env)
	cmd.Stdin = strings.NewReader(buildStdin(q))

	// Stdout goes through an io.Pipe rather than StdoutPipe so that Wait can
	// run concurrently with reading and WaitDelay can reclaim the pipe when
	// a grandchild process keeps the descriptor open.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	stderr := newTailBuffer(stderrTailSize)
	cmd.Stderr = stderr

	debug.Log(debug.Backend, "spawning codex", "binary", r.binary, "args", strings.Join(args, " "))
	if debug.TraceIsEnabled(debug.Backend) {
		debug.Raw(debug.Backend, buildStdin(q))
	}

	if err := cmd.Start(); err != nil {
		cancel()
		pr.Close()
		return nil, fmt.Errorf("codex: start: %w", err)
	}

	ch := make(chan backend.Event, outputBuffer)
	go r.run(ctx, cancel, cmd, pr, pw, stderr, ch)
	return ch, nil
}

// run owns the process after Start. It pumps stdout into ch, waits for the
// process, and emits a terminal ErrorSignal when the output ended without
// one.
func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, cmd *exec.Cmd,
	pr *io.PipeReader, pw *io.PipeWriter, stderr *tailBuffer, ch chan<- backend.Event) {
	defer close(ch)
	defer cancel()

	p := &parser{}
	var (
		waitErr  error
		terminal bool
	)

	var g errgroup.Group
	g.Go(func() error {
		waitErr = cmd.Wait()
		pw.Close()
		return nil
	})
	g.Go(func() error {
		var err error
		terminal, err = r.pump(ctx, pr, p, ch)
		if err != nil && ctx.Err() == nil {
			// Nobody reads the process's output any more; stop it before it
			// blocks on a full pipe.
			cancel()
			return err
		}
		return nil
	})
	readErr := g.Wait()

	debug.Log(debug.Backend, "codex exited",
		"pid", cmd.Process.Pid,
		"terminal", terminal,
		"wait_error", waitErr,
	)

	if terminal {
		return
	}

	var ev backend.ErrorSignal
	switch {
	case readErr != nil:
		ev = backend.ErrorSignal{Message: "codex: read output: " + readErr.Error(), Err: readErr}
	case ctx.Err() != nil:
		ev = backend.ErrorSignal{Err: &backend.AbortError{Cause: ctx.Err()}}
	case waitErr != nil:
		exitErr := wrapExitError(waitErr, stderr.String())
		ev = backend.ErrorSignal{Message: exitErr.Error(), Err: exitErr}
		if p.lastError != nil {
			ev.Code, ev.Message = p.lastError.Code, p.lastError.Message
		}
	case p.lastError != nil:
		ev = *p.lastError
	default:
		// Clean exit without a terminal event; the consumer reports the
		// incomplete stream.
		return
	}
	deliver(ctx, ch, ev)
}

// pump reads JSONL from r, forwarding events until the first terminal one.
// Output after the terminal event is drained and ignored.
func (r *Runner) pump(ctx context.Context, rd *io.PipeReader, p *parser, ch chan<- backend.Event) (bool, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), r.maxLineSize)

	terminal := false
	for scanner.Scan() {
		line := scanner.Text()
		debug.Trace(debug.Backend, "codex line", "line", line)

		if terminal {
			continue
		}

		ev, err := p.parseLine(line)
		if err != nil {
			slog.Warn("skipping malformed codex output line",
				"error", err.Error(),
				"data", debug.Truncate(line, 200),
			)
			continue
		}
		if ev == nil {
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			// Unblock the process's stdout copier so Wait can return.
			rd.CloseWithError(ctx.Err())
			return false, ctx.Err()
		}
		terminal = ev.Terminal()
	}

	if err := scanner.Err(); err != nil {
		rd.CloseWithError(err)
		if ctx.Err() != nil {
			return terminal, ctx.Err()
		}
		return terminal, err
	}
	return terminal, nil
}

// deliver sends the closing event, preferring delivery over cancellation
// while buffer space remains.
func deliver(ctx context.Context, ch chan<- backend.Event, ev backend.Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

// Version runs "codex --version" and returns the first line of its output.
func (r *Runner) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "--version")
	cmd.Env = mergeEnv(processEnv(), r.env)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("codex: version probe: %w", err)
	}
	return firstLine(string(out)), nil
}
