// Command mock-codex is a deterministic stand-in for the Codex CLI, for
// exercising the adapter without a real installation or network access.
// It accepts "codex exec --json -" and "codex --version"; responses are
// selected by markers in the prompt (see package codextest).
//
// Point the adapter at it with:
//
//	CODEXCLI_BINARY=/path/to/mock-codex
package main

import (
	"os"

	"github.com/rhuss/codexcli/pkg/backend/codex/codextest"
)

func main() {
	os.Exit(codextest.Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
