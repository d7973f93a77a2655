package codex

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/debug"
)

// errInvalidLine is returned for output lines that are not JSON objects.
var errInvalidLine = errors.New("codex: invalid JSON line")

// parser turns codex exec JSONL lines into backend events. It keeps the
// per-query state the events depend on: the announced thread ID and the
// most recent non-fatal error.
type parser struct {
	sessionID string
	lastError *backend.ErrorSignal
}

// eventParser handles one top-level event type. A nil event means the
// line produces nothing for the caller.
type eventParser func(p *parser, raw gjson.Result) backend.Event

// eventParsers dispatches codex event types. turn.started, item.started and
// item.updated carry nothing the adapter relays.
var eventParsers = map[string]eventParser{
	"thread.started": (*parser).parseThreadStarted,
	"turn.started":   skipEvent,
	"item.started":   skipEvent,
	"item.updated":   skipEvent,
	"item.completed": (*parser).parseItemCompleted,
	"turn.completed": (*parser).parseTurnCompleted,
	"turn.failed":    (*parser).parseTurnFailed,
	"error":          (*parser).parseTopLevelError,

	// SDK-style envelope emitted by wrappers around the CLI.
	"assistant": (*parser).parseAssistantEnvelope,
	"result":    (*parser).parseResultEnvelope,
}

// itemParser handles one item type inside item.completed.
type itemParser func(p *parser, item gjson.Result) backend.Event

var itemParsers = map[string]itemParser{
	"agent_message": (*parser).parseAgentMessage,
	"error":         (*parser).parseItemError,
}

// parseLine parses a single output line. It returns (nil, nil) for blank
// lines and events without a caller-visible effect.
func (p *parser) parseLine(line string) (backend.Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !gjson.Valid(line) {
		return nil, errInvalidLine
	}

	raw := gjson.Parse(line)
	if !raw.IsObject() {
		return nil, errInvalidLine
	}

	typ := raw.Get("type").String()
	if handler, ok := eventParsers[typ]; ok {
		return handler(p, raw), nil
	}

	debug.Log(debug.Backend, "ignoring unknown codex event", "type", typ)
	return nil, nil
}

func skipEvent(*parser, gjson.Result) backend.Event {
	return nil
}

func (p *parser) parseThreadStarted(raw gjson.Result) backend.Event {
	if id := raw.Get("thread_id").String(); id != "" && p.sessionID == "" {
		p.sessionID = id
	}
	return nil
}

// parseItemCompleted delegates to itemParsers based on item.type. Other
// items (reasoning, command executions, file changes, tool calls) are the
// agent's own work and only logged.
func (p *parser) parseItemCompleted(raw gjson.Result) backend.Event {
	item := raw.Get("item")
	if !item.Exists() {
		debug.Log(debug.Backend, "item.completed without item")
		return nil
	}

	itemType := item.Get("type").String()
	if handler, ok := itemParsers[itemType]; ok {
		return handler(p, item)
	}

	if debug.Enabled(debug.Backend) {
		debug.Log(debug.Backend, "codex item completed",
			"item_type", itemType,
			"item", debug.Truncate(item.Raw, 200),
		)
	}
	return nil
}

func (p *parser) parseAgentMessage(item gjson.Result) backend.Event {
	text := item.Get("text").String()
	if text == "" {
		return nil
	}
	return backend.TextDelta{Text: text}
}

// parseItemError records an item-level error. These are non-fatal: the
// turn continues and reports its own outcome.
func (p *parser) parseItemError(item gjson.Result) backend.Event {
	msg := item.Get("message").String()
	if msg == "" {
		msg = item.Get("text").String()
	}
	p.remember(item.Get("code").String(), msg)
	return nil
}

func (p *parser) parseTurnCompleted(raw gjson.Result) backend.Event {
	return backend.Result{
		Subtype:   "success",
		Usage:     parseUsage(raw.Get("usage")),
		SessionID: p.sessionID,
	}
}

func (p *parser) parseTurnFailed(raw gjson.Result) backend.Event {
	errObj := raw.Get("error")
	msg := errObj.Get("message").String()
	if msg == "" {
		msg = "turn failed"
	}
	return backend.ErrorSignal{
		Code:    errObj.Get("code").String(),
		Message: truncate(msg),
	}
}

// parseTopLevelError records a top-level error event. Codex emits these
// for transient conditions (stream reconnects) before the turn outcome.
func (p *parser) parseTopLevelError(raw gjson.Result) backend.Event {
	p.remember(raw.Get("code").String(), raw.Get("message").String())
	return nil
}

// parseAssistantEnvelope handles {"type":"assistant","message":{"content":[...]}}.
func (p *parser) parseAssistantEnvelope(raw gjson.Result) backend.Event {
	var sb strings.Builder
	raw.Get("message.content").ForEach(func(_, part gjson.Result) bool {
		if part.Get("type").String() == "text" {
			sb.WriteString(part.Get("text").String())
		}
		return true
	})
	if sb.Len() == 0 {
		return nil
	}
	return backend.TextDelta{Text: sb.String()}
}

// parseResultEnvelope handles {"type":"result","subtype":...,"usage":{...}}.
func (p *parser) parseResultEnvelope(raw gjson.Result) backend.Event {
	if raw.Get("is_error").Bool() {
		msg := raw.Get("result").String()
		if msg == "" {
			msg = "backend reported an error result"
		}
		return backend.ErrorSignal{Code: raw.Get("subtype").String(), Message: truncate(msg)}
	}
	sessionID := raw.Get("session_id").String()
	if sessionID == "" {
		sessionID = p.sessionID
	}
	return backend.Result{
		Subtype:   raw.Get("subtype").String(),
		Usage:     parseUsage(raw.Get("usage")),
		SessionID: sessionID,
	}
}

func (p *parser) remember(code, msg string) {
	if msg == "" {
		msg = "unknown error"
	}
	debug.Log(debug.Backend, "codex reported error", "code", code, "message", debug.Truncate(msg, 200))
	p.lastError = &backend.ErrorSignal{Code: code, Message: truncate(msg)}
}

// parseUsage extracts {input_tokens, cached_input_tokens, output_tokens}.
// Returns nil when the usage object is absent.
func parseUsage(usage gjson.Result) *backend.Usage {
	if !usage.IsObject() {
		return nil
	}
	return &backend.Usage{
		InputTokens:       int(usage.Get("input_tokens").Int()),
		CachedInputTokens: int(usage.Get("cached_input_tokens").Int()),
		OutputTokens:      int(usage.Get("output_tokens").Int()),
	}
}
