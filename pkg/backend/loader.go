package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rhuss/codexcli/pkg/debug"
	"github.com/rhuss/codexcli/pkg/observability"
)

// ErrNotInstalled is wrapped by resolvers when the backend is absent.
var ErrNotInstalled = errors.New("backend not installed")

// AbortError is the backend's cancellation error. Query functions wrap the
// context error in it when a request is aborted by the caller.
type AbortError struct {
	Cause error
}

func (e *AbortError) Error() string {
	if e.Cause == nil {
		return "backend request aborted"
	}
	return "backend request aborted: " + e.Cause.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

// IsAbort reports whether err is an *AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// Handle is a resolved backend: its query entry point and the predicate
// recognizing its cancellation error.
type Handle struct {
	// Binary is the resolved executable path.
	Binary string

	// ProbeVersion reports the backend version. It runs on demand, never
	// during Load. Nil means the version is unknown.
	ProbeVersion func(ctx context.Context) (string, error)

	Query QueryFunc

	// IsAbort recognizes the backend's cancellation error. Nil means IsAbort.
	IsAbort func(error) bool
}

// Version returns the backend version, or empty if it cannot be determined
// before ctx ends.
func (h *Handle) Version(ctx context.Context) string {
	if h.ProbeVersion == nil {
		return ""
	}
	v, err := h.ProbeVersion(ctx)
	if err != nil {
		debug.Log(debug.Loader, "backend version probe failed", "binary", h.Binary, "error", err)
		return ""
	}
	return v
}

// Aborted reports whether err is this backend's cancellation error.
func (h *Handle) Aborted(err error) bool {
	if h.IsAbort != nil {
		return h.IsAbort(err)
	}
	return IsAbort(err)
}

// LoaderState is the lifecycle of a Loader.
type LoaderState int

const (
	// Unattempted means Load has not been called yet.
	Unattempted LoaderState = iota

	// Loaded means the backend resolved; the handle is cached.
	Loaded

	// PermanentlyFailed means resolution failed; it is never retried.
	PermanentlyFailed
)

func (s LoaderState) String() string {
	switch s {
	case Unattempted:
		return "unattempted"
	case Loaded:
		return "loaded"
	case PermanentlyFailed:
		return "permanently_failed"
	default:
		return fmt.Sprintf("LoaderState(%d)", int(s))
	}
}

// Loader resolves a backend at most once. The first call to Load runs the
// resolver; every later call, including concurrent first calls, observes
// the same handle or the same error.
type Loader struct {
	resolve func() (*Handle, error)

	once   sync.Once
	mu     sync.RWMutex
	state  LoaderState
	handle *Handle
	err    error
}

// NewLoader returns a Loader that will run resolve on first use.
func NewLoader(resolve func() (*Handle, error)) *Loader {
	return &Loader{resolve: resolve}
}

// Load returns the resolved handle, resolving it on first use.
func (l *Loader) Load(ctx context.Context) (*Handle, error) {
	l.once.Do(func() {
		h, err := l.resolve()
		if err == nil && (h == nil || h.Query == nil) {
			err = fmt.Errorf("%w: resolver returned no query entry point", ErrNotInstalled)
		}

		l.mu.Lock()
		if err != nil {
			l.state, l.err = PermanentlyFailed, err
		} else {
			l.state, l.handle = Loaded, h
		}
		l.mu.Unlock()

		observability.RecordBackendLoad(err)
		if err != nil {
			debug.Log(debug.Loader, "backend load failed", "error", err)
		} else {
			debug.Log(debug.Loader, "backend loaded", "binary", h.Binary)
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handle, l.err
}

// State reports the current lifecycle state without triggering a load.
func (l *Loader) State() LoaderState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}
