package api

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Part is one typed segment of message content. The set of implementations
// is closed: TextPart, ImagePart, FilePart, ToolCallPart, ToolResultPart.
type Part interface {
	isPart()
}

// TextPart is plain text content.
type TextPart struct {
	Text string
}

// ImagePart references an image by URL or carries it inline.
type ImagePart struct {
	URL      string
	MIMEType string
	Data     []byte
}

// FilePart references a file by URL or carries it inline.
type FilePart struct {
	Filename string
	MIMEType string
	URL      string
	Data     []byte
}

// ToolCallPart records a tool invocation made by the assistant.
type ToolCallPart struct {
	ToolCallID string
	ToolName   string
	Args       json.RawMessage
}

// ToolResultPart carries the output of a tool invocation.
type ToolResultPart struct {
	ToolCallID string
	ToolName   string
	Result     string
	IsError    bool
}

func (TextPart) isPart()       {}
func (ImagePart) isPart()      {}
func (FilePart) isPart()       {}
func (ToolCallPart) isPart()   {}
func (ToolResultPart) isPart() {}

// Message is a single role-tagged prompt entry.
type Message struct {
	Role    Role
	Content []Part
}

// TextMessage builds a message whose content is a single text part.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Part{TextPart{Text: text}}}
}

// ResponseFormatType selects between free text and structured output.
type ResponseFormatType string

const (
	ResponseFormatText ResponseFormatType = "text"
	ResponseFormatJSON ResponseFormatType = "json"
)

// ResponseFormat describes the output shape the caller expects.
type ResponseFormat struct {
	Type        ResponseFormatType
	Schema      json.RawMessage
	Name        string
	Description string
}

// CallOptions are the sampling knobs a host may pass. Nil means unset.
type CallOptions struct {
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	TopK             *int
	PresencePenalty  *float64
	FrequencyPenalty *float64
	StopSequences    []string
	Seed             *int
}

// ToolDefinition describes a function tool offered by the host.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// CallRequest is one generation request from the host.
type CallRequest struct {
	Prompt         []Message
	Options        CallOptions
	ResponseFormat *ResponseFormat
	Tools          []ToolDefinition
}

// JSONMode reports whether the caller asked for structured JSON output.
func (r *CallRequest) JSONMode() bool {
	return r != nil && r.ResponseFormat != nil && r.ResponseFormat.Type == ResponseFormatJSON
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens       int `json:"promptTokens"`
	CompletionTokens   int `json:"completionTokens"`
	CachedPromptTokens int `json:"cachedPromptTokens,omitempty"`
}

// TotalTokens returns prompt plus completion tokens.
func (u Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}

// FinishReason explains why generation stopped.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonError   FinishReason = "error"
	FinishReasonUnknown FinishReason = "unknown"
)

// WarningType classifies a call warning.
type WarningType string

const (
	WarningUnsupportedSetting WarningType = "unsupported-setting"
	WarningUnsupportedTool    WarningType = "unsupported-tool"
	WarningOther              WarningType = "other"
)

// Warning reports a requested feature the backend ignored.
type Warning struct {
	Type    WarningType `json:"type"`
	Setting string      `json:"setting,omitempty"`
	Tool    string      `json:"tool,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ResponseMetadata identifies a finished call.
type ResponseMetadata struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"modelId"`
	SessionID string    `json:"sessionId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateResult is the outcome of a single-shot generation.
type GenerateResult struct {
	Text         string           `json:"text"`
	Usage        Usage            `json:"usage"`
	FinishReason FinishReason     `json:"finishReason"`
	Warnings     []Warning        `json:"warnings"`
	Response     ResponseMetadata `json:"response"`
}
