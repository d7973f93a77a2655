// Package provider defines the host-facing contracts for language-model
// backends: the LanguageModel a host calls, the ModelFactory that creates
// models, and the Provider capability a registry wires in. Adapters (e.g.,
// codexcli) handle their own backend protocol internally.
package provider
