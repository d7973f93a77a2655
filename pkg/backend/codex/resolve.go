package codex

import (
	"fmt"
	"os/exec"

	"github.com/rhuss/codexcli/pkg/backend"
)

// Resolver returns a backend resolver for the codex executable. binary may
// be a name looked up on PATH or a path; empty means DefaultBinary.
//
// Resolution fails with backend.ErrNotInstalled when the executable cannot
// be found. The version probe is informational and never fails resolution.
func Resolver(binary string, opts ...Option) func() (*backend.Handle, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	return func() (*backend.Handle, error) {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", backend.ErrNotInstalled, binary, err)
		}

		runner := NewRunner(path, opts...)
		return &backend.Handle{
			Binary:       path,
			ProbeVersion: runner.Version,
			Query:        runner.Query,
			IsAbort:      backend.IsAbort,
		}, nil
	}
}
