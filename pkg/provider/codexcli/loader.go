package codexcli

import (
	"os"
	"sync"

	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/backend/codex"
)

// EnvBinary overrides the codex executable used by DefaultLoader.
const EnvBinary = "CODEXCLI_BINARY"

var (
	defaultLoaderOnce sync.Once
	defaultLoader     *backend.Loader
)

// DefaultLoader returns the process-wide backend loader shared by every
// model created without WithLoader. The executable is taken from
// CODEXCLI_BINARY, falling back to "codex" on PATH.
func DefaultLoader() *backend.Loader {
	defaultLoaderOnce.Do(func() {
		defaultLoader = backend.NewLoader(codex.Resolver(os.Getenv(EnvBinary)))
	})
	return defaultLoader
}
