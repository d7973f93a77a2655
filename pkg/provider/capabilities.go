package provider

import (
	"strings"

	"github.com/rhuss/codexcli/pkg/api"
)

// Capabilities declares what features the backend supports.
type Capabilities struct {
	// Streaming indicates whether the provider supports streaming responses.
	Streaming bool

	// ToolCalling indicates whether the provider supports host-defined tools.
	ToolCalling bool

	// Vision indicates whether the provider accepts image inputs.
	Vision bool

	// StructuredOutput indicates whether the provider can be asked for JSON.
	StructuredOutput bool
}

// CapabilityWarnings reports the parts of req the provider cannot honor.
// Unlike option warnings these depend on the request content: one
// unsupported-tool warning per offered tool, and one warning each for image
// inputs and structured output.
func CapabilityWarnings(caps Capabilities, req *api.CallRequest) []api.Warning {
	if req == nil {
		return nil
	}

	var warnings []api.Warning

	if !caps.ToolCalling {
		for _, tool := range req.Tools {
			warnings = append(warnings, api.Warning{
				Type:    api.WarningUnsupportedTool,
				Tool:    tool.Name,
				Details: "the configured provider does not support tool calling; the tool will be ignored",
			})
		}
	}

	if !caps.Vision && hasImageInput(req.Prompt) {
		warnings = append(warnings, api.Warning{
			Type:    api.WarningOther,
			Details: "the configured provider does not support image inputs; images are replaced by placeholders",
		})
	}

	if !caps.StructuredOutput && req.JSONMode() {
		warnings = append(warnings, api.Warning{
			Type:    api.WarningOther,
			Details: "the configured provider does not support structured output; the response is returned as text",
		})
	}

	return warnings
}

func hasImageInput(prompt []api.Message) bool {
	for _, msg := range prompt {
		for _, part := range msg.Content {
			switch p := part.(type) {
			case api.ImagePart:
				return true
			case api.FilePart:
				if strings.HasPrefix(p.MIMEType, "image/") {
					return true
				}
			}
		}
	}
	return false
}
