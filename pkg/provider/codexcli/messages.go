package codexcli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rhuss/codexcli/pkg/api"
)

// ConvertOptions adjust prompt conversion.
type ConvertOptions struct {
	// JSONMode appends an instruction to answer with JSON only.
	JSONMode bool

	// Schema is included in the JSON instruction when set.
	Schema json.RawMessage
}

// ConvertedPrompt is the backend-ready form of a host prompt.
type ConvertedPrompt struct {
	// Prompt is the serialized conversation without system messages.
	Prompt string

	// SystemPrompt holds the system messages joined by blank lines.
	SystemPrompt string
}

const jsonInstruction = "Respond only with a valid JSON object or array. Do not include explanations, markdown, or code fences."

// ConvertMessages flattens prompt into a single backend prompt. System
// messages are collected into SystemPrompt in order; the remaining
// messages are labeled by role and separated by blank lines. Non-text
// parts are kept as bracketed placeholders. The input is not modified.
func ConvertMessages(prompt []api.Message, opts ConvertOptions) ConvertedPrompt {
	var system, body []string

	for _, msg := range prompt {
		text := partsText(msg.Content)

		switch msg.Role {
		case api.RoleSystem:
			if text != "" {
				system = append(system, text)
			}
		case api.RoleUser:
			body = append(body, labeled("User", text))
		case api.RoleAssistant:
			body = append(body, labeled("Assistant", text))
		case api.RoleTool:
			for _, part := range msg.Content {
				if r, ok := part.(api.ToolResultPart); ok {
					body = append(body, labeled(fmt.Sprintf("Tool Result (%s)", r.ToolName), toolResultText(r)))
				} else if t := partText(part); t != "" {
					body = append(body, labeled("Tool Result", t))
				}
			}
		default:
			body = append(body, labeled(string(msg.Role), text))
		}
	}

	if opts.JSONMode {
		instr := jsonInstruction
		if len(opts.Schema) > 0 {
			instr += "\nThe JSON must conform to this schema:\n" + string(opts.Schema)
		}
		body = append(body, instr)
	}

	return ConvertedPrompt{
		Prompt:       strings.Join(body, "\n\n"),
		SystemPrompt: strings.Join(system, "\n\n"),
	}
}

func labeled(label, text string) string {
	if text == "" {
		return label + ":"
	}
	return label + ": " + text
}

// partsText joins the textual form of each part with newlines.
func partsText(parts []api.Part) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := partText(part); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

func partText(part api.Part) string {
	switch p := part.(type) {
	case api.TextPart:
		return p.Text
	case api.ImagePart:
		return "[Image: " + firstNonEmpty(p.MIMEType, p.URL, "inline") + "]"
	case api.FilePart:
		return "[File: " + firstNonEmpty(p.Filename, p.MIMEType, p.URL, "inline") + "]"
	case api.ToolCallPart:
		args := strings.TrimSpace(string(p.Args))
		return fmt.Sprintf("[Tool Call: %s(%s)]", p.ToolName, args)
	case api.ToolResultPart:
		return fmt.Sprintf("[Tool Result (%s): %s]", p.ToolName, toolResultText(p))
	default:
		return fmt.Sprintf("[Unsupported content: %T]", part)
	}
}

func toolResultText(r api.ToolResultPart) string {
	if r.IsError {
		return "Error: " + r.Result
	}
	return r.Result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
