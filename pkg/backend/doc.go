// Package backend defines the contract between the language-model adapter
// and the process that actually performs inference.
//
// A backend is resolved once per process by a [Loader] into a [Handle].
// The handle's Query function starts one request and returns a channel of
// [Event] values: zero or more [TextDelta] events followed by exactly one
// terminal event ([Result] or [ErrorSignal]). A channel that closes
// without a terminal event is an incomplete stream.
package backend
