package backend

// Usage captures token consumption for a completed turn.
type Usage struct {
	InputTokens       int
	CachedInputTokens int
	OutputTokens      int
}

// Event is one record of a backend response. The set of implementations is
// closed: TextDelta, Result, ErrorSignal.
type Event interface {
	backendEvent()

	// Terminal reports whether the event ends the response.
	Terminal() bool
}

// TextDelta carries a chunk of assistant text.
type TextDelta struct {
	Text string
}

// Result ends a successful response.
type Result struct {
	// Subtype is the completion status reported by the backend, e.g. "success".
	Subtype string

	// Usage is nil when the backend reported no counters.
	Usage *Usage

	// SessionID is the backend thread identifier, if one was announced.
	SessionID string
}

// ErrorSignal ends a failed response.
type ErrorSignal struct {
	// Code is the backend error code, if any.
	Code string

	// Message is the backend-reported failure text.
	Message string

	// Err is the underlying Go error (exit status, abort), if any.
	Err error
}

func (TextDelta) backendEvent()   {}
func (Result) backendEvent()      {}
func (ErrorSignal) backendEvent() {}

func (TextDelta) Terminal() bool   { return false }
func (Result) Terminal() bool      { return true }
func (ErrorSignal) Terminal() bool { return true }

// Error implements the error interface so an ErrorSignal can be returned or
// wrapped directly.
func (e ErrorSignal) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "backend error"
	}
}

// Unwrap returns the underlying error.
func (e ErrorSignal) Unwrap() error {
	return e.Err
}
