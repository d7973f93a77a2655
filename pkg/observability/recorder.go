package observability

import (
	"time"

	"github.com/rhuss/codexcli/pkg/api"
)

// Call records the metrics of one model call. Create it with StartCall
// before invoking the backend and finish it exactly once with Done.
//
// It captures:
//   - codexcli_requests_total (counter): one per call with operation, model, and status labels
//   - codexcli_request_duration_seconds (histogram): call duration with operation and model labels
//   - codexcli_streams_active (gauge): incremented while a streaming call is in flight
type Call struct {
	operation string
	model     string
	streaming bool
	start     time.Time
}

// StartCall begins recording a call. Streaming calls also hold the active
// streams gauge until Done.
func StartCall(operation, model string, streaming bool) *Call {
	if streaming {
		StreamsActive.Inc()
	}
	return &Call{
		operation: operation,
		model:     model,
		streaming: streaming,
		start:     time.Now(),
	}
}

// Done records the outcome. A nil error counts as "ok"; classified errors
// are labeled by kind and anything else as "error".
func (c *Call) Done(err error) {
	if c.streaming {
		StreamsActive.Dec()
	}
	RequestsTotal.WithLabelValues(c.operation, c.model, StatusLabel(err)).Inc()
	RequestDuration.WithLabelValues(c.operation, c.model).Observe(time.Since(c.start).Seconds())
}

// StatusLabel maps an error to the status label value.
func StatusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := api.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// RecordUsage adds the token counts of a finished call.
func RecordUsage(model string, usage api.Usage) {
	if usage.PromptTokens > 0 {
		TokensTotal.WithLabelValues(model, "input").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		TokensTotal.WithLabelValues(model, "output").Add(float64(usage.CompletionTokens))
	}
}

// RecordWarnings counts the unsupported-setting warnings of a call.
func RecordWarnings(warnings []api.Warning) {
	for _, w := range warnings {
		if w.Type != api.WarningUnsupportedSetting {
			continue
		}
		UnsupportedWarningsTotal.WithLabelValues(w.Setting).Inc()
	}
}

// RecordBackendLoad counts one backend resolution attempt.
func RecordBackendLoad(err error) {
	result := "loaded"
	if err != nil {
		result = "failed"
	}
	BackendLoadsTotal.WithLabelValues(result).Inc()
}
