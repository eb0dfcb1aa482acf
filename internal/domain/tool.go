package domain

// Tool describes a callable operation exposed to MCP clients.
// Based on MCP Spec 2025-03-26: https://modelcontextprotocol.io/specification/2025-03-26
type Tool struct {
	// Name MUST be unique within the server (e.g. "android_start_app").
	Name string `json:"name"`

	// Description is a natural language explanation of what the tool does.
	// This is what the LLM reads when deciding whether to call the tool.
	Description string `json:"description"`

	// InputSchema defines the structure of the arguments the tool expects,
	// in JSON Schema form. Serialized as "inputSchema" per the MCP wire format.
	InputSchema JSONSchemaProps `json:"inputSchema"`
}

// JSONSchemaProps is the subset of JSON Schema needed to describe tool
// parameters. A full implementation would import a schema library; the tool
// surface here only ever uses objects of string properties.
type JSONSchemaProps struct {
	Type       string                     `json:"type"`
	Properties map[string]JSONSchemaProps `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
	Items      *JSONSchemaProps           `json:"items,omitempty"`
	Enum       []interface{}              `json:"enum,omitempty"`

	// Description documents an individual property.
	Description string `json:"description,omitempty"`
}

// ObjectSchema builds an object schema from property descriptions and the
// list of required property names.
func ObjectSchema(props map[string]JSONSchemaProps, required ...string) JSONSchemaProps {
	return JSONSchemaProps{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// StringProp builds a string-typed property schema with a description.
func StringProp(description string) JSONSchemaProps {
	return JSONSchemaProps{Type: "string", Description: description}
}
