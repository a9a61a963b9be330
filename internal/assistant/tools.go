package assistant

import (
	"encoding/json"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"github.com/sashabaranov/go-openai"
)

// ConvertTools translates local tool descriptors to the wire format the
// Assistants API expects
func ConvertTools(tools []types.Tool) ([]openai.AssistantTool, error) {
	result := make([]openai.AssistantTool, 0, len(tools))
	for _, tool := range tools {
		converted, err := ConvertTool(tool)
		if err != nil {
			return nil, err
		}
		result = append(result, converted)
	}
	return result, nil
}

// ConvertTool translates one tool descriptor. Built-in capabilities carry
// only a type; function tools carry a name, a JSON-schema parameter
// signature, and a strictness flag.
func ConvertTool(tool types.Tool) (openai.AssistantTool, error) {
	switch tool.Type {
	case types.ToolTypeCodeInterpreter:
		return openai.AssistantTool{Type: openai.AssistantToolTypeCodeInterpreter}, nil

	case types.ToolTypeFileSearch:
		return openai.AssistantTool{Type: openai.AssistantToolTypeFileSearch}, nil

	case types.ToolTypeFunction:
		if tool.Name == "" || len(tool.Parameters) == 0 {
			return openai.AssistantTool{}, apperrors.Newf(apperrors.ErrInvalidParams,
				"function tool requires a name and a parameter schema")
		}
		return openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Strict:      tool.Strict,
				Parameters:  json.RawMessage(tool.Parameters),
			},
		}, nil

	default:
		return openai.AssistantTool{}, apperrors.Newf(apperrors.ErrInvalidParams,
			"invalid tool type: %s", tool.Type)
	}
}
