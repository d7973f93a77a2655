package codexcli

import (
	"context"
	"maps"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/auth"
	"github.com/rhuss/codexcli/pkg/auth/noop"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/backend/codex"
	"github.com/rhuss/codexcli/pkg/config"
	"github.com/rhuss/codexcli/pkg/debug"
	"github.com/rhuss/codexcli/pkg/provider"
)

const (
	// ProviderName is the human-readable provider name.
	ProviderName = "Codex CLI"

	// APIKeyEnv names the optional API key variable. The Codex CLI
	// normally authenticates through "codex login".
	APIKeyEnv = "CODEX_CLI_API_KEY"

	// codexAPIKeyEnv is the variable codex exec reads an API key from.
	codexAPIKeyEnv = "CODEX_API_KEY"
)

// Provider wires the Codex CLI adapter into a host registry.
type Provider struct {
	cfg    *config.Config
	loader *backend.Loader
	authn  auth.Authenticator
}

var _ provider.Provider = (*Provider)(nil)

// NewProvider creates a provider from cfg. A nil cfg means config.Defaults().
//
// The process-wide DefaultLoader is used unless cfg names a different
// executable or grace period; then the provider resolves its own.
func NewProvider(cfg *config.Config) *Provider {
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	return &Provider{
		cfg:    cfg,
		loader: loaderFor(cfg.Codex),
		authn: &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.Yes,
		},
	}
}

func loaderFor(c config.CodexConfig) *backend.Loader {
	defaults := config.Defaults().Codex
	if (c.Binary == "" || c.Binary == defaults.Binary) && (c.GracePeriod == 0 || c.GracePeriod == defaults.GracePeriod) {
		return DefaultLoader()
	}
	debug.Log(debug.Loader, "using configured codex executable", "binary", c.Binary, "grace_period", c.GracePeriod)
	return backend.NewLoader(codex.Resolver(c.Binary, codex.WithGracePeriod(c.GracePeriod)))
}

// Name returns "Codex CLI".
func (p *Provider) Name() string { return ProviderName }

// RequiredAPIKeyName returns CODEX_CLI_API_KEY.
func (p *Provider) RequiredAPIKeyName() string { return APIKeyEnv }

// IsAPIKeyRequired returns false: the CLI manages its own login.
func (p *Provider) IsAPIKeyRequired() bool { return false }

// ValidateAuth accepts any credentials.
func (p *Provider) ValidateAuth(ctx context.Context, creds auth.Credentials) error {
	return auth.Validate(ctx, p.authn, creds)
}

// Client returns a Factory whose defaults are the configured settings for
// params.CommandName. An API key from params or configuration is passed to
// the CLI through its environment. BaseURL is not used by the Codex CLI.
func (p *Provider) Client(ctx context.Context, params provider.ClientParams) (provider.ModelFactory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defaults := p.cfg.SettingsForCommand(params.CommandName)

	key := params.Credentials.APIKey
	if key == "" {
		key = p.cfg.Codex.APIKey
	}
	if key != "" {
		if _, set := defaults.Env[codexAPIKeyEnv]; !set {
			env := maps.Clone(defaults.Env)
			if env == nil {
				env = make(map[string]string, 1)
			}
			env[codexAPIKeyEnv] = key
			defaults.Env = env
		}
	}

	debug.Log(debug.Config, "codex client created", "command", params.CommandName)
	return NewFactory(defaults, WithLoader(p.loader)), nil
}

// Check resolves the Codex CLI executable. A missing executable yields the
// SDKNotInstalled error; the result is cached like every other load.
func (p *Provider) Check(ctx context.Context) (*backend.Handle, error) {
	h, err := p.loader.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ClassifyError(err, nil)
		}
		return nil, api.NewNotInstalledError(err, nil)
	}
	return h, nil
}
