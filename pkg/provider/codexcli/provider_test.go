package codexcli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/auth"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/config"
	"github.com/rhuss/codexcli/pkg/provider"
)

func TestProvider_Metadata(t *testing.T) {
	t.Parallel()

	p := NewProvider(nil)
	assert.Equal(t, "Codex CLI", p.Name())
	assert.Equal(t, "CODEX_CLI_API_KEY", p.RequiredAPIKeyName())
	assert.False(t, p.IsAPIKeyRequired())
	assert.Same(t, DefaultLoader(), p.loader)
}

func TestProvider_ConfiguredBinaryUsesOwnLoader(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Codex.Binary = "/opt/codex/bin/codex"

	p := NewProvider(&cfg)
	assert.NotSame(t, DefaultLoader(), p.loader)
	assert.Equal(t, backend.Unattempted, p.loader.State())
}

func TestProvider_ValidateAuth(t *testing.T) {
	t.Parallel()

	p := NewProvider(nil)
	assert.NoError(t, p.ValidateAuth(context.Background(), auth.Credentials{}))
	assert.NoError(t, p.ValidateAuth(context.Background(), auth.Credentials{APIKey: "sk-test"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.ValidateAuth(ctx, auth.Credentials{}), context.Canceled)
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Codex.Settings = backend.Settings{
		Sandbox: "read-only",
		Env:     map[string]string{"SHARED": "1"},
	}
	cfg.Codex.CommandSettings = map[string]backend.Settings{
		"review": {ReasoningEffort: "high", Timeout: time.Minute},
	}
	return &cfg
}

func clientFactory(t *testing.T, p *Provider, params provider.ClientParams) *Factory {
	t.Helper()
	mf, err := p.Client(context.Background(), params)
	require.NoError(t, err)
	f, ok := mf.(*Factory)
	require.True(t, ok, "got %T", mf)
	return f
}

func TestProvider_ClientCommandSettings(t *testing.T) {
	t.Parallel()

	p := NewProvider(testConfig())

	global := clientFactory(t, p, provider.ClientParams{})
	m, err := global.Chat("gpt-5", backend.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "read-only", m.Settings().Sandbox)
	assert.Empty(t, m.Settings().ReasoningEffort)

	review := clientFactory(t, p, provider.ClientParams{CommandName: "review"})
	m, err = review.Chat("gpt-5", backend.Settings{Sandbox: "workspace-write"})
	require.NoError(t, err)
	s := m.Settings()
	assert.Equal(t, "workspace-write", s.Sandbox, "per-model settings win")
	assert.Equal(t, "high", s.ReasoningEffort)
	assert.Equal(t, time.Minute, s.Timeout)
}

func TestProvider_ClientAPIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Codex.APIKey = "sk-config"
	p := NewProvider(cfg)

	tests := []struct {
		name   string
		params provider.ClientParams
		want   string
	}{
		{"from config", provider.ClientParams{}, "sk-config"},
		{"credentials win", provider.ClientParams{Credentials: auth.Credentials{APIKey: "sk-creds"}}, "sk-creds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := clientFactory(t, p, tt.params).Chat("gpt-5", backend.Settings{})
			require.NoError(t, err)
			env := m.Settings().Env
			assert.Equal(t, tt.want, env["CODEX_API_KEY"])
			assert.Equal(t, "1", env["SHARED"])
		})
	}

	_, set := cfg.Codex.Settings.Env["CODEX_API_KEY"]
	assert.False(t, set, "configuration must not be modified")
}

func TestProvider_ClientKeepsExplicitKeyEnv(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Codex.Settings.Env["CODEX_API_KEY"] = "sk-explicit"
	p := NewProvider(cfg)

	m, err := clientFactory(t, p, provider.ClientParams{Credentials: auth.Credentials{APIKey: "sk-creds"}}).
		Chat("gpt-5", backend.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", m.Settings().Env["CODEX_API_KEY"])
}

func TestProvider_ClientCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mf, err := NewProvider(nil).Client(ctx, provider.ClientParams{})
	assert.Nil(t, mf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactory_LanguageModel(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{events: []backend.Event{backend.TextDelta{Text: "ok"}, backend.Result{Subtype: "success"}}}
	factory := NewFactory(backend.Settings{Profile: "ci"}, WithLoader(f.loader()))

	lm, err := factory.LanguageModel("codex")
	require.NoError(t, err)
	assert.Equal(t, "codex", lm.ModelID())
	assert.Equal(t, "codex-cli", lm.Provider())

	res, err := lm.DoGenerate(context.Background(), userPrompt("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)

	q := f.lastQuery(t)
	assert.Equal(t, "gpt-5-codex", q.Model)
	assert.Equal(t, "ci", q.Settings.Profile)
}

func TestFactory_DefaultsCannotBeReplacedByOptions(t *testing.T) {
	t.Parallel()

	factory := NewFactory(backend.Settings{Profile: "factory"},
		WithDefaults(backend.Settings{Profile: "option"}),
		WithLoader(backend.NewLoader(nil)),
	)
	m, err := factory.Chat("gpt-5", backend.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "factory", m.Settings().Profile)
}

func TestFactory_EmptyModelID(t *testing.T) {
	t.Parallel()

	factory := NewFactory(backend.Settings{}, WithLoader(backend.NewLoader(nil)))

	lm, err := factory.LanguageModel("")
	assert.True(t, lm == nil, "must be a nil interface, not a typed nil")
	assert.ErrorIs(t, err, api.ErrInvalidModel)
}

func TestFactory_TextEmbeddingModel(t *testing.T) {
	t.Parallel()

	err := NewFactory(backend.Settings{}).TextEmbeddingModel("text-embedding-3-small")
	require.Error(t, err)
	assert.Equal(t, `No such model: "text-embedding-3-small"`, err.Error())
	assert.ErrorIs(t, err, api.ErrInvalidModel)
	assert.Equal(t, "textEmbeddingModel", api.ErrorMetadata(err)[api.MetaModelType])
}

func TestProvider_CheckNotInstalled(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Codex.Binary = filepath.Join(t.TempDir(), "codex")
	p := NewProvider(&cfg)

	for range 2 {
		h, err := p.Check(context.Background())
		assert.Nil(t, h)
		require.Error(t, err)
		assert.Equal(t, api.NotInstalledMessage, err.Error())
		assert.ErrorIs(t, err, backend.ErrNotInstalled)
	}
	assert.Equal(t, backend.PermanentlyFailed, p.loader.State())
}
