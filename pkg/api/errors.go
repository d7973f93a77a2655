package api

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorKind represents the category of a classified provider error.
type ErrorKind string

const (
	ErrorKindAuthentication  ErrorKind = "authentication"
	ErrorKindTimeout         ErrorKind = "timeout"
	ErrorKindAPICall         ErrorKind = "api_call"
	ErrorKindSDKNotInstalled ErrorKind = "sdk_not_installed"
	ErrorKindInvalidModel    ErrorKind = "invalid_model"
)

// NotInstalledMessage is returned verbatim whenever the Codex CLI backend
// cannot be resolved. Callers match on this exact wording.
const NotInstalledMessage = "Codex CLI SDK is not installed. Please install '@openai/codex-cli' to use the codex-cli provider."

// Metadata keys attached to classified errors.
const (
	MetaModelID   = "modelId"
	MetaModelType = "modelType"
	MetaOperation = "operation"
	MetaRequestID = "requestId"
	MetaExitCode  = "exitCode"
	MetaCode      = "code"
	MetaStderr    = "stderr"
)

// ProviderError is a backend failure normalized into one of a fixed set of
// kinds. It keeps the original error as Cause and carries diagnostic
// metadata such as the model ID and the attempted operation.
//
// A ProviderError is never modified after construction.
type ProviderError struct {
	Kind     ErrorKind
	Message  string
	Cause    error
	Metadata map[string]string
}

// Kind sentinels for use with errors.Is.
var (
	ErrAuthentication  = &ProviderError{Kind: ErrorKindAuthentication}
	ErrTimeout         = &ProviderError{Kind: ErrorKindTimeout}
	ErrAPICall         = &ProviderError{Kind: ErrorKindAPICall}
	ErrSDKNotInstalled = &ProviderError{Kind: ErrorKindSDKNotInstalled}
	ErrInvalidModel    = &ProviderError{Kind: ErrorKindInvalidModel}
)

// Error implements the error interface. The message is returned unchanged so
// that fixed-wording messages survive intact.
func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap returns the original error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ProviderError of the same kind.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Meta returns a metadata value, or empty string.
func (e *ProviderError) Meta(key string) string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}

func newProviderError(kind ErrorKind, message string, cause error, meta map[string]string) *ProviderError {
	return &ProviderError{
		Kind:     kind,
		Message:  message,
		Cause:    cause,
		Metadata: maps.Clone(meta),
	}
}

// NewAuthenticationError creates a ProviderError for rejected credentials.
func NewAuthenticationError(message string, cause error, meta map[string]string) *ProviderError {
	return newProviderError(ErrorKindAuthentication, message, cause, meta)
}

// NewTimeoutError creates a ProviderError for deadlines and cancellations.
func NewTimeoutError(message string, cause error, meta map[string]string) *ProviderError {
	return newProviderError(ErrorKindTimeout, message, cause, meta)
}

// NewAPICallError creates a ProviderError for any other backend failure.
func NewAPICallError(message string, cause error, meta map[string]string) *ProviderError {
	return newProviderError(ErrorKindAPICall, message, cause, meta)
}

// NewNotInstalledError creates the SDKNotInstalled error with its fixed message.
func NewNotInstalledError(cause error, meta map[string]string) *ProviderError {
	return newProviderError(ErrorKindSDKNotInstalled, NotInstalledMessage, cause, meta)
}

// NewInvalidModelError creates an InvalidModel error naming the offending ID.
func NewInvalidModelError(modelID string, meta map[string]string) *ProviderError {
	m := maps.Clone(meta)
	if m == nil {
		m = make(map[string]string, 1)
	}
	m[MetaModelID] = modelID
	return &ProviderError{
		Kind:     ErrorKindInvalidModel,
		Message:  fmt.Sprintf("No such model: %q", modelID),
		Metadata: m,
	}
}

// IsAuthenticationError reports whether err is an authentication failure.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsTimeoutError reports whether err is a timeout or cancellation.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// KindOf returns the kind of the first ProviderError in err's chain, or
// empty string.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// ErrorMetadata returns a copy of the metadata of the first ProviderError in
// err's chain, or nil.
func ErrorMetadata(err error) map[string]string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return maps.Clone(pe.Metadata)
	}
	return nil
}
