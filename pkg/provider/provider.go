package provider

import (
	"context"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/auth"
)

// LanguageModel is the host-facing model contract. DoGenerate returns one
// finished result; DoStream relays output as it is produced.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type LanguageModel interface {
	// ModelID returns the identifier the model was created with.
	ModelID() string

	// Provider returns the provider identifier (e.g., "codex-cli").
	Provider() string

	// SpecificationVersion returns the contract version implemented.
	SpecificationVersion() string

	// DoGenerate performs single-shot generation. Failures are returned as
	// *api.ProviderError.
	DoGenerate(ctx context.Context, req *api.CallRequest) (*api.GenerateResult, error)

	// DoStream starts streaming generation. Setup failures are returned
	// directly; failures after setup end the stream with an error part.
	DoStream(ctx context.Context, req *api.CallRequest) (*api.StreamResult, error)
}

// ModelFactory creates language models for one configured client.
type ModelFactory interface {
	LanguageModel(modelID string) (LanguageModel, error)
}

// ClientParams select how a provider builds its client.
type ClientParams struct {
	// CommandName selects per-command settings from configuration.
	// Empty means the global settings.
	CommandName string

	Credentials auth.Credentials
}

// Provider is the capability a host registry needs to use a backend: a
// name, credential validation, and a client.
type Provider interface {
	// Name returns the human-readable provider name.
	Name() string

	// ValidateAuth checks credentials before use.
	ValidateAuth(ctx context.Context, creds auth.Credentials) error

	// Client returns a model factory configured for params.
	Client(ctx context.Context, params ClientParams) (ModelFactory, error)

	// RequiredAPIKeyName returns the environment variable holding the key.
	RequiredAPIKeyName() string

	// IsAPIKeyRequired reports whether the provider fails without a key.
	IsAPIKeyRequired() bool
}
