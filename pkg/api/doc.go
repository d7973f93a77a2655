// Package api defines the host-facing types of the Codex CLI adapter.
//
// The host application speaks a uniform language-model contract: a prompt
// made of role-tagged messages, call options, and either a single-shot
// result or an incremental stream of parts. This package holds those types
// together with the classified error taxonomy every failure is mapped into.
//
// The package has no external dependencies beyond ID generation and
// performs no I/O.
//
// Core types:
//   - [Message] and [Part]: Prompt content (text, image, file, tool call, tool result)
//   - [CallRequest]: Prompt plus call options and response format
//   - [GenerateResult]: Finished single-shot response
//   - [StreamPart] and [StreamResult]: Incremental streaming output
//   - [ProviderError]: Classified error with kind, cause, and metadata
package api
