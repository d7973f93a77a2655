package codexcli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/debug"
	"github.com/rhuss/codexcli/pkg/observability"
	"github.com/rhuss/codexcli/pkg/provider"
)

// ProviderID identifies this adapter in model metadata.
const ProviderID = "codex-cli"

const (
	specificationVersion        = "v1"
	defaultObjectGenerationMode = "json"

	opGenerate = "doGenerate"
	opStream   = "doStream"

	modelTypeLanguage = "languageModel"
)

// modelAliases maps short names to Codex model IDs. Other IDs pass through.
var modelAliases = map[string]string{
	"codex":      "gpt-5-codex",
	"codex-mini": "codex-mini-latest",
	"mini":       "gpt-5-mini",
	"gpt5":       "gpt-5",
}

// unsupportedOption is one sampling knob the Codex CLI cannot apply.
type unsupportedOption struct {
	name  string
	isSet func(api.CallOptions) bool
}

// unsupportedOptions is checked in order; warnings follow the same order.
var unsupportedOptions = []unsupportedOption{
	{"temperature", func(o api.CallOptions) bool { return o.Temperature != nil }},
	{"maxTokens", func(o api.CallOptions) bool { return o.MaxTokens != nil }},
	{"topP", func(o api.CallOptions) bool { return o.TopP != nil }},
	{"topK", func(o api.CallOptions) bool { return o.TopK != nil }},
	{"presencePenalty", func(o api.CallOptions) bool { return o.PresencePenalty != nil }},
	{"frequencyPenalty", func(o api.CallOptions) bool { return o.FrequencyPenalty != nil }},
	{"stopSequences", func(o api.CallOptions) bool { return len(o.StopSequences) > 0 }},
	{"seed", func(o api.CallOptions) bool { return o.Seed != nil }},
}

// capabilities of the Codex CLI backend. Structured output is requested
// through the prompt and recovered with ExtractJSON.
var capabilities = provider.Capabilities{
	Streaming:        true,
	ToolCalling:      false,
	Vision:           false,
	StructuredOutput: true,
}

// LanguageModel runs requests through the Codex CLI. It is immutable after
// construction and safe for concurrent use.
type LanguageModel struct {
	modelID  string
	settings backend.Settings
	loader   *backend.Loader
}

var _ provider.LanguageModel = (*LanguageModel)(nil)

// Option configures a LanguageModel.
type Option func(*modelOptions)

type modelOptions struct {
	loader   *backend.Loader
	defaults backend.Settings
}

// WithLoader sets the backend loader. The default is DefaultLoader().
func WithLoader(l *backend.Loader) Option {
	return func(o *modelOptions) {
		o.loader = l
	}
}

// WithDefaults sets provider-level settings. Settings passed to New take
// precedence field by field.
func WithDefaults(s backend.Settings) Option {
	return func(o *modelOptions) {
		o.defaults = s
	}
}

// New creates a model for modelID. An empty ID fails with an InvalidModel
// error; any other ID is accepted verbatim.
func New(modelID string, settings backend.Settings, opts ...Option) (*LanguageModel, error) {
	if modelID == "" {
		return nil, api.NewInvalidModelError(modelID, map[string]string{api.MetaModelType: modelTypeLanguage})
	}

	var o modelOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		o.loader = DefaultLoader()
	}

	return &LanguageModel{
		modelID:  modelID,
		settings: o.defaults.Merge(settings),
		loader:   o.loader,
	}, nil
}

// ModelID returns the ID the model was created with.
func (m *LanguageModel) ModelID() string { return m.modelID }

// Provider returns "codex-cli".
func (m *LanguageModel) Provider() string { return ProviderID }

// SpecificationVersion returns the implemented contract version.
func (m *LanguageModel) SpecificationVersion() string { return specificationVersion }

// DefaultObjectGenerationMode returns how structured output is produced.
func (m *LanguageModel) DefaultObjectGenerationMode() string { return defaultObjectGenerationMode }

// Capabilities reports the backend's feature support.
func (m *LanguageModel) Capabilities() provider.Capabilities { return capabilities }

// Settings returns a copy of the merged settings.
func (m *LanguageModel) Settings() backend.Settings { return m.settings.Clone() }

// GetModel returns the Codex model name for the model ID, resolving the
// known aliases.
func (m *LanguageModel) GetModel() string {
	if name, ok := modelAliases[m.modelID]; ok {
		return name
	}
	return m.modelID
}

// UnsupportedWarnings returns one unsupported-setting warning per option
// in opts that the Codex CLI ignores.
func (m *LanguageModel) UnsupportedWarnings(opts api.CallOptions) []api.Warning {
	var warnings []api.Warning
	for _, opt := range unsupportedOptions {
		if !opt.isSet(opts) {
			continue
		}
		warnings = append(warnings, api.Warning{
			Type:    api.WarningUnsupportedSetting,
			Setting: opt.name,
			Details: "Codex CLI does not support the " + opt.name + " parameter. It will be ignored.",
		})
	}
	return warnings
}

// call is the per-request state shared by DoGenerate and DoStream.
type call struct {
	id       string
	meta     map[string]string
	warnings []api.Warning
	response api.ResponseMetadata
}

func (m *LanguageModel) newCall(op string, req *api.CallRequest) *call {
	id := api.NewRequestID()
	warnings := append(m.UnsupportedWarnings(req.Options), provider.CapabilityWarnings(capabilities, req)...)
	observability.RecordWarnings(warnings)

	debug.Log(debug.Adapter, "codex call",
		"operation", op,
		"request_id", id,
		"model", m.modelID,
		"messages", len(req.Prompt),
		"json_mode", req.JSONMode(),
		"warnings", len(warnings),
	)

	return &call{
		id: id,
		meta: map[string]string{
			api.MetaModelID:   m.modelID,
			api.MetaOperation: op,
			api.MetaRequestID: id,
		},
		warnings: warnings,
		response: api.ResponseMetadata{
			ID:        id,
			ModelID:   m.modelID,
			Timestamp: time.Now(),
		},
	}
}

// start resolves the backend, converts the prompt and starts the query.
func (m *LanguageModel) start(ctx context.Context, c *call, req *api.CallRequest) (*backend.Handle, <-chan backend.Event, error) {
	h, err := m.loader.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, nil, classify(err, backend.IsAbort, c.meta)
		}
		return nil, nil, api.NewNotInstalledError(err, c.meta)
	}

	var schema []byte
	if req.ResponseFormat != nil {
		schema = req.ResponseFormat.Schema
	}
	conv := ConvertMessages(req.Prompt, ConvertOptions{JSONMode: req.JSONMode(), Schema: schema})

	q := backend.Query{
		Prompt:       conv.Prompt,
		SystemPrompt: conv.SystemPrompt,
		Model:        m.GetModel(),
		Settings:     m.settings.Clone(),
	}

	events, err := h.Query(ctx, q)
	if err != nil {
		return nil, nil, classify(err, h.Aborted, c.meta)
	}
	return h, events, nil
}

// DoGenerate runs the request to completion and returns the concatenated
// text. In JSON mode the text is reduced to its JSON payload.
func (m *LanguageModel) DoGenerate(ctx context.Context, req *api.CallRequest) (*api.GenerateResult, error) {
	if req == nil {
		req = &api.CallRequest{}
	}
	c := m.newCall(opGenerate, req)
	rec := observability.StartCall(opGenerate, m.modelID, false)

	// Stops the backend process on any early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result, err := m.generate(ctx, c, req)
	if err != nil {
		debug.Log(debug.Adapter, "codex call failed", "request_id", c.id, "kind", api.KindOf(err), "error", err)
		rec.Done(err)
		return nil, err
	}
	rec.Done(nil)
	observability.RecordUsage(m.modelID, result.Usage)
	return result, nil
}

func (m *LanguageModel) generate(ctx context.Context, c *call, req *api.CallRequest) (*api.GenerateResult, error) {
	h, events, err := m.start(ctx, c, req)
	if err != nil {
		return nil, err
	}

	var (
		text     strings.Builder
		terminal backend.Event
	)
	for terminal == nil {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, classify(errIncompleteStream, h.Aborted, c.meta)
			}
			switch e := ev.(type) {
			case backend.TextDelta:
				text.WriteString(e.Text)
			case backend.Result, backend.ErrorSignal:
				terminal = e
			}
		case <-ctx.Done():
			return nil, classify(&backend.AbortError{Cause: ctx.Err()}, h.Aborted, c.meta)
		}
	}
	drain(ctx, events)

	res, ok := terminal.(backend.Result)
	if !ok {
		return nil, classify(terminal.(backend.ErrorSignal), h.Aborted, c.meta)
	}

	out := text.String()
	if req.JSONMode() {
		out = ExtractJSON(out)
	}

	resp := c.response
	resp.SessionID = res.SessionID

	debug.Log(debug.Adapter, "codex call finished",
		"request_id", c.id,
		"subtype", res.Subtype,
		"session_id", res.SessionID,
		"text_len", len(out),
	)

	return &api.GenerateResult{
		Text:         out,
		Usage:        convertUsage(res.Usage),
		FinishReason: finishReason(res.Subtype),
		Warnings:     c.warnings,
		Response:     resp,
	}, nil
}

// drain consumes events after the terminal one so the backend can finish
// and close the channel.
func drain(ctx context.Context, events <-chan backend.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// convertUsage maps backend counters to host usage. Missing counters are 0.
func convertUsage(u *backend.Usage) api.Usage {
	if u == nil {
		return api.Usage{}
	}
	return api.Usage{
		PromptTokens:       u.InputTokens,
		CompletionTokens:   u.OutputTokens,
		CachedPromptTokens: u.CachedInputTokens,
	}
}

// finishReason maps the backend completion subtype.
func finishReason(subtype string) api.FinishReason {
	switch subtype {
	case "success", "done":
		return api.FinishReasonStop
	case "error_max_turns":
		return api.FinishReasonLength
	case "error_during_execution":
		return api.FinishReasonError
	default:
		return api.FinishReasonUnknown
	}
}
