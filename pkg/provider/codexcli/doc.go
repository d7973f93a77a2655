// Package codexcli adapts the OpenAI Codex CLI to the provider.LanguageModel
// contract.
//
// A LanguageModel converts the host prompt into a single backend query,
// runs it through a lazily resolved backend (the codex executable), and
// either reduces the resulting event stream into one GenerateResult or
// relays it as StreamParts. Backend failures are classified into
// *api.ProviderError values.
//
// The backend is resolved at most once per process: when the codex
// executable is missing, every call fails fast with the fixed
// api.NotInstalledMessage.
package codexcli
