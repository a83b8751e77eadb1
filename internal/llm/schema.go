package llm

import (
	"slices"

	"google.golang.org/genai"
)

// Type is a JSON schema type name.
type Type string

// Schema types supported by every provider.
const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
)

// Schema is the JSON schema subset shared by the providers' structured output modes.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    int                `json:"minItems,omitempty"`
	MaxItems    int                `json:"maxItems,omitempty"`
}

// Object returns an object schema requiring all listed properties.
func Object(props map[string]*Schema) *Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	slices.Sort(required)
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// StringArray returns an array-of-strings schema.
func StringArray(description string, minItems, maxItems int) *Schema {
	return &Schema{
		Type:        TypeArray,
		Description: description,
		Items:       &Schema{Type: TypeString},
		MinItems:    minItems,
		MaxItems:    maxItems,
	}
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// toGenai converts the schema to the Gemini SDK representation.
func (s *Schema) toGenai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeInteger:
		out.Type = genai.TypeInteger
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = p.toGenai()
		}
	}
	out.Items = s.Items.toGenai()
	if s.MinItems > 0 {
		n := int64(s.MinItems)
		out.MinItems = &n
	}
	if s.MaxItems > 0 {
		n := int64(s.MaxItems)
		out.MaxItems = &n
	}
	return out
}
