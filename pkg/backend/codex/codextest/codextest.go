// Package codextest provides a deterministic stand-in for the Codex CLI.
//
// Main behaves like "codex exec --json -": it reads the prompt from stdin
// and prints JSONL events. The response is chosen by markers found in the
// prompt, so tests can drive every outcome through the real subprocess
// path:
//
//	[auth-error]   turn.failed with a 401, exit 1
//	[crash]        stderr output, exit 3, no terminal event
//	[no-result]    one message, clean exit without turn.completed
//	[hang]         one message, then sleeps until killed
//	[json]         a fenced JSON object as the message
//	[multi]        three messages: "one", "two", "three"
//	[retry-error]  a transient error event, then a normal turn
//	[sdk-envelope] assistant/result envelope instead of codex events
//	[garbage]      a non-JSON line before a normal turn
//	[echo-args]    the command-line arguments as the message
//	[echo-env]     the value of EchoEnvVar as the message
//
// Without a marker the message is "Hello from fake codex" and usage reports
// one input token per prompt word and 10 output tokens.
package codextest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

// EnvFake, when set to "1", makes a test binary act as the fake CLI.
const EnvFake = "CODEXCLI_FAKE_CODEX"

// EnvVersionHang, when set to "1", makes "--version" sleep until killed.
const EnvVersionHang = "CODEXCLI_FAKE_VERSION_HANG"

// EchoEnvVar is echoed by the [echo-env] marker.
const EchoEnvVar = "CODEXCLI_FAKE_ECHO"

// ThreadID is the thread ID announced by every fake session.
const ThreadID = "0199a213-81c0-7800-8aa1-bbab2a035a53"

// Version is printed for "--version".
const Version = "codex-cli 0.0.0-fake"

// Prompt markers.
const (
	MarkerAuthError   = "[auth-error]"
	MarkerCrash       = "[crash]"
	MarkerNoResult    = "[no-result]"
	MarkerHang        = "[hang]"
	MarkerJSON        = "[json]"
	MarkerMulti       = "[multi]"
	MarkerRetryError  = "[retry-error]"
	MarkerSDKEnvelope = "[sdk-envelope]"
	MarkerGarbage     = "[garbage]"
	MarkerEchoArgs    = "[echo-args]"
	MarkerEchoEnv     = "[echo-env]"
)

// JSONReply is the message sent for the [json] marker.
const JSONReply = "Here is the result:\n```json\n{\"ok\": true, \"items\": [1, 2]}\n```"

// Main runs the fake CLI and returns the process exit code.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if slices.Contains(args, "--version") {
		if os.Getenv(EnvVersionHang) == "1" {
			time.Sleep(time.Hour)
		}
		fmt.Fprintln(stdout, Version)
		return 0
	}
	if len(args) == 0 || args[0] != "exec" {
		fmt.Fprintln(stderr, "usage: codex exec --json [options] -")
		return 2
	}

	prompt, err := readPrompt(args, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: reading prompt: %v\n", err)
		return 1
	}

	e := &emitter{w: stdout}

	if strings.Contains(prompt, MarkerSDKEnvelope) {
		e.emit(map[string]any{
			"type":    "assistant",
			"message": map[string]any{"content": []any{map[string]any{"type": "text", "text": "Hello"}}},
		})
		e.emit(map[string]any{
			"type":    "result",
			"subtype": "done",
			"usage":   map[string]any{"output_tokens": 10, "input_tokens": 5},
		})
		return 0
	}

	e.emit(map[string]any{"type": "thread.started", "thread_id": ThreadID})
	e.emit(map[string]any{"type": "turn.started"})

	switch {
	case strings.Contains(prompt, MarkerAuthError):
		e.emit(map[string]any{"type": "error", "message": "unexpected status 401 Unauthorized: Not logged in. Run 'codex login'."})
		e.emit(map[string]any{"type": "turn.failed", "error": map[string]any{"message": "401 Unauthorized: not logged in"}})
		return 1

	case strings.Contains(prompt, MarkerCrash):
		fmt.Fprintln(stderr, "fatal: model provider exploded")
		return 3

	case strings.Contains(prompt, MarkerNoResult):
		e.message("partial")
		return 0

	case strings.Contains(prompt, MarkerHang):
		e.message("waiting")
		time.Sleep(time.Hour)
		return 0

	case strings.Contains(prompt, MarkerJSON):
		e.message(JSONReply)

	case strings.Contains(prompt, MarkerMulti):
		e.emit(map[string]any{"type": "item.completed", "item": map[string]any{"id": "item_0", "type": "reasoning", "text": "thinking"}})
		for _, m := range []string{"one", "two", "three"} {
			e.message(m)
		}

	case strings.Contains(prompt, MarkerRetryError):
		e.emit(map[string]any{"type": "error", "message": "Reconnecting... 1/5"})
		e.message("recovered")

	case strings.Contains(prompt, MarkerGarbage):
		fmt.Fprintln(stdout, "this is not json")
		e.message("Hello from fake codex")

	case strings.Contains(prompt, MarkerEchoArgs):
		e.message(strings.Join(args, " "))

	case strings.Contains(prompt, MarkerEchoEnv):
		e.message(os.Getenv(EchoEnvVar))

	default:
		e.message("Hello from fake codex")
	}

	e.emit(map[string]any{
		"type": "turn.completed",
		"usage": map[string]any{
			"input_tokens":        len(strings.Fields(prompt)),
			"cached_input_tokens": 0,
			"output_tokens":       10,
		},
	})
	return 0
}

// readPrompt takes the prompt from stdin when the last argument is "-",
// otherwise from the last argument.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	last := args[len(args)-1]
	if last != "-" {
		return last, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type emitter struct {
	w     io.Writer
	items int
}

func (e *emitter) emit(v map[string]any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(e.w, "%s\n", data)
}

func (e *emitter) message(text string) {
	id := fmt.Sprintf("item_%d", e.items)
	e.items++
	e.emit(map[string]any{"type": "item.started", "item": map[string]any{"id": id, "type": "agent_message", "text": ""}})
	e.emit(map[string]any{"type": "item.completed", "item": map[string]any{"id": id, "type": "agent_message", "text": text}})
}
