package codex

import (
	"os"
	"testing"

	"go.uber.org/goleak"

	"github.com/rhuss/codexcli/pkg/backend/codex/codextest"
)

// TestMain doubles as the fake codex executable: runners in this package
// re-exec the test binary with codextest.EnvFake set.
func TestMain(m *testing.M) {
	if os.Getenv(codextest.EnvFake) == "1" {
		os.Exit(codextest.Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	}
	goleak.VerifyTestMain(m)
}
