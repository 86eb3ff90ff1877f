package ai

import (
	"encoding/json"

	"github.com/google/generative-ai-go/genai"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema describes a structured JSON response. It converts to the Gemini
// response schema and renders as JSON Schema for providers without native
// structured output.
type Schema struct {
	Type       SchemaType         `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
}

func (s *Schema) genai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Enum: s.Enum}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Enum) > 0 {
		out.Format = "enum"
	}
	if s.Items != nil {
		out.Items = s.Items.genai()
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.genai()
		}
	}
	return out
}

// JSON renders the schema for inclusion in a prompt.
func (s *Schema) JSON() string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func objectOf(props map[string]*Schema) *Schema {
	return &Schema{Type: TypeObject, Properties: props}
}

func arrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

func stringField() *Schema { return &Schema{Type: TypeString} }

func numberField() *Schema { return &Schema{Type: TypeNumber} }

func enumField(values ...string) *Schema {
	return &Schema{Type: TypeString, Enum: values}
}
