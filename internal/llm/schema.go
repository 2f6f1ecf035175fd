package llm

import (
	"encoding/json"
	"strings"
)

// Type is a JSON schema primitive type.
type Type string

const (
	TypeObject  Type = "object"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
)

// Schema is the subset of JSON schema shared by the supported providers.
type Schema struct {
	Name        string             `json:"-"`
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	// Order lists property names in the order they should be generated.
	Order []string `json:"-"`
}

// Instruction renders the schema as a prompt suffix for providers that
// cannot enforce a response schema natively.
func (s *Schema) Instruction() string {
	if s == nil {
		return ""
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Respond with a single JSON object that conforms to this JSON schema. ")
	sb.WriteString("Do not wrap it in Markdown and do not add any other text.\n")
	sb.Write(body)
	return sb.String()
}
