// Package codex runs the OpenAI Codex CLI as a backend.
//
// Each query spawns "codex exec --json", writes the prompt to the process's
// stdin, and translates the JSONL events it prints into [backend.Event]
// values:
//
//	thread.started                 → session ID (recorded, no event)
//	item.completed/agent_message   → backend.TextDelta
//	turn.completed                 → backend.Result with usage
//	turn.failed                    → backend.ErrorSignal
//	error                          → remembered; reported if the turn never completes
//
// Cancelling the query context sends SIGTERM to the process and SIGKILL
// after the grace period.
package codex
