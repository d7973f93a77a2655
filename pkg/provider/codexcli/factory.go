package codexcli

import (
	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/provider"
)

const modelTypeTextEmbedding = "textEmbeddingModel"

// Factory creates Codex CLI models sharing provider-level default settings.
type Factory struct {
	defaults backend.Settings
	opts     []Option
}

var _ provider.ModelFactory = (*Factory)(nil)

// NewFactory returns a factory whose models start from defaults. opts are
// applied to every model; WithDefaults in opts is overridden by defaults.
func NewFactory(defaults backend.Settings, opts ...Option) *Factory {
	return &Factory{
		defaults: defaults.Clone(),
		opts:     opts,
	}
}

// LanguageModel creates a model with the factory defaults.
func (f *Factory) LanguageModel(modelID string) (provider.LanguageModel, error) {
	m, err := f.LanguageModelWithSettings(modelID, backend.Settings{})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LanguageModelWithSettings creates a model whose settings override the
// factory defaults field by field.
func (f *Factory) LanguageModelWithSettings(modelID string, settings backend.Settings) (*LanguageModel, error) {
	opts := append(append([]Option{}, f.opts...), WithDefaults(f.defaults))
	return New(modelID, settings, opts...)
}

// Chat is an alias for LanguageModelWithSettings.
func (f *Factory) Chat(modelID string, settings backend.Settings) (*LanguageModel, error) {
	return f.LanguageModelWithSettings(modelID, settings)
}

// TextEmbeddingModel always fails: the Codex CLI has no embedding models.
func (f *Factory) TextEmbeddingModel(modelID string) error {
	return api.NewInvalidModelError(modelID, map[string]string{api.MetaModelType: modelTypeTextEmbedding})
}
