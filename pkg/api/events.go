package api

import "sync"

// StreamPartType identifies the kind of a streamed part.
type StreamPartType string

const (
	StreamPartTextDelta StreamPartType = "text-delta"
	StreamPartFinish    StreamPartType = "finish"
	StreamPartError     StreamPartType = "error"
)

// StreamPart is one element of an incremental response. A stream carries
// zero or more text-delta parts followed by exactly one finish or error part.
type StreamPart struct {
	Type StreamPartType

	// Delta is set for text-delta parts.
	Delta string

	// Usage and FinishReason are set on the finish part.
	Usage        *Usage
	FinishReason FinishReason

	// Err is set on the error part.
	Err error
}

// IsTerminal reports whether the part ends the stream.
func (p StreamPart) IsTerminal() bool {
	return p.Type == StreamPartFinish || p.Type == StreamPartError
}

// StreamResult is the handle for an in-flight streaming call.
type StreamResult struct {
	// Parts is closed after the terminal part.
	Parts <-chan StreamPart

	// Warnings lists requested features the backend ignores.
	Warnings []Warning

	// Response identifies the call; SessionID is not known up front.
	Response ResponseMetadata

	closeOnce sync.Once
	cancel    func()
}

// NewStreamResult wires a parts channel to the function that aborts the
// producer.
func NewStreamResult(parts <-chan StreamPart, warnings []Warning, meta ResponseMetadata, cancel func()) *StreamResult {
	return &StreamResult{
		Parts:    parts,
		Warnings: warnings,
		Response: meta,
		cancel:   cancel,
	}
}

// Close abandons the stream. The producer is cancelled and the underlying
// backend process is terminated. Safe to call multiple times and after the
// stream has finished.
func (s *StreamResult) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
