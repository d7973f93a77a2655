package codexcli

import (
	"context"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/backend"
	"github.com/rhuss/codexcli/pkg/debug"
	"github.com/rhuss/codexcli/pkg/observability"
)

// streamBuffer is the capacity of the parts channel.
const streamBuffer = 16

// DoStream starts the request and relays text deltas as they arrive. The
// stream ends with exactly one finish or error part, after which Parts is
// closed. Setup failures (backend not installed, process start) are
// returned directly.
//
// Callers that stop reading early must call Close on the result or cancel
// ctx; either terminates the backend process.
func (m *LanguageModel) DoStream(ctx context.Context, req *api.CallRequest) (*api.StreamResult, error) {
	if req == nil {
		req = &api.CallRequest{}
	}
	c := m.newCall(opStream, req)
	rec := observability.StartCall(opStream, m.modelID, true)

	ctx, cancel := context.WithCancel(ctx)
	h, events, err := m.start(ctx, c, req)
	if err != nil {
		cancel()
		debug.Log(debug.Adapter, "codex stream setup failed", "request_id", c.id, "kind", api.KindOf(err), "error", err)
		rec.Done(err)
		return nil, err
	}

	out := make(chan api.StreamPart, streamBuffer)
	go m.relay(ctx, cancel, h, c, events, out, rec)

	return api.NewStreamResult(out, c.warnings, c.response, cancel), nil
}

// relay forwards backend events to out until the terminal event, then
// waits for the backend to finish before closing out.
func (m *LanguageModel) relay(ctx context.Context, cancel context.CancelFunc, h *backend.Handle,
	c *call, events <-chan backend.Event, out chan<- api.StreamPart, rec *observability.Call) {
	defer cancel()
	defer close(out)

	deltas := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				m.failStream(ctx, out, rec, classify(errIncompleteStream, h.Aborted, c.meta), c, deltas)
				return
			}

			switch e := ev.(type) {
			case backend.TextDelta:
				if e.Text == "" {
					continue
				}
				select {
				case out <- api.StreamPart{Type: api.StreamPartTextDelta, Delta: e.Text}:
					deltas++
				case <-ctx.Done():
					m.failStream(ctx, out, rec, classify(&backend.AbortError{Cause: ctx.Err()}, h.Aborted, c.meta), c, deltas)
					return
				}

			case backend.Result:
				usage := convertUsage(e.Usage)
				send(ctx, out, api.StreamPart{
					Type:         api.StreamPartFinish,
					Usage:        &usage,
					FinishReason: finishReason(e.Subtype),
				})
				debug.Log(debug.Streaming, "codex stream finished",
					"request_id", c.id,
					"deltas", deltas,
					"subtype", e.Subtype,
					"session_id", e.SessionID,
				)
				observability.RecordUsage(m.modelID, usage)
				rec.Done(nil)
				drain(ctx, events)
				return

			case backend.ErrorSignal:
				m.failStream(ctx, out, rec, classify(e, h.Aborted, c.meta), c, deltas)
				drain(ctx, events)
				return
			}

		case <-ctx.Done():
			m.failStream(ctx, out, rec, classify(&backend.AbortError{Cause: ctx.Err()}, h.Aborted, c.meta), c, deltas)
			return
		}
	}
}

func (m *LanguageModel) failStream(ctx context.Context, out chan<- api.StreamPart, rec *observability.Call,
	err *api.ProviderError, c *call, deltas int) {
	debug.Log(debug.Streaming, "codex stream failed",
		"request_id", c.id,
		"deltas", deltas,
		"kind", err.Kind,
		"error", err.Message,
	)
	send(ctx, out, api.StreamPart{Type: api.StreamPartError, Err: err})
	rec.Done(err)
}

// send delivers the terminal part. It prefers delivery while the buffer
// has room, so a cancelled stream still reports why it ended.
func send(ctx context.Context, out chan<- api.StreamPart, part api.StreamPart) {
	select {
	case out <- part:
		return
	default:
	}
	select {
	case out <- part:
	case <-ctx.Done():
	}
}
