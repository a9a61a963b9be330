package types

import (
	"encoding/json"
	"time"
)

// Well-known assistant type names. Templates are categorized by the
// document-AI task they drive.
const (
	AssistantTypeExtraction = "scr-extraction"
	AssistantTypeCSV        = "csv-generation"
)

// WellKnownAssistantTypes is the closed set of valid assistant type names
var WellKnownAssistantTypes = []string{
	AssistantTypeExtraction,
	AssistantTypeCSV,
}

// IsValidAssistantType reports whether name is one of the known assistant types
func IsValidAssistantType(name string) bool {
	for _, t := range WellKnownAssistantTypes {
		if t == name {
			return true
		}
	}
	return false
}

// ToolType identifies a tool capability kind
type ToolType string

const (
	ToolTypeCodeInterpreter ToolType = "code_interpreter"
	ToolTypeFileSearch      ToolType = "file_search"
	ToolTypeFunction        ToolType = "function"
)

// Tool is a capability descriptor attached to an assistant type: either a
// built-in capability or a named function with a JSON-schema signature.
type Tool struct {
	Type        ToolType        `json:"type"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Strict      bool            `json:"strict,omitempty"`
}

// AssistantType is a fixed category of document-AI task with its tool set
type AssistantType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tools []Tool `json:"tools"`
}

// Template is the joined view of a template exposed to callers. Model holds
// the referenced model's external identifier, AssistantType the type name.
type Template struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"-"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Instructions    string  `json:"instructions"`
	Model           string  `json:"model"`
	ModelID         string  `json:"-"`
	Temperature     float32 `json:"temperature"`
	IsDefault       bool    `json:"isDefault"`
	AssistantType   string  `json:"assistantType"`
	AssistantTypeID string  `json:"assistantTypeId"`
	// AssistantID is the remote assistant resource handle; empty until the
	// remote resource has been provisioned.
	AssistantID string    `json:"assistantId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Selection is a user's explicit per-type template override
type Selection struct {
	OwnerID         string    `json:"-"`
	AssistantTypeID string    `json:"assistantTypeId"`
	AssistantType   string    `json:"assistantType"`
	TemplateID      string    `json:"templateId"`
	Template        *Template `json:"template,omitempty"`
}

// SelectionView is the per-type resolution of "which template applies now":
// the explicit selection when present, the type's default otherwise, nil when
// neither exists.
type SelectionView struct {
	Extraction *Template `json:"extraction"`
	CSV        *Template `json:"csv"`
}

// ModelRef resolves a model's external identifier to its registry row
type ModelRef struct {
	ID       string
	OpenAIID string
}

// DefaultKey identifies the scope of the one-default invariant
type DefaultKey struct {
	OwnerID         string
	AssistantTypeID string
}

// AssistantSpec is the parameter set pushed to the remote assistant resource
type AssistantSpec struct {
	Name         string
	Instructions string
	Model        string
	Tools        []Tool
	Temperature  float32
}
