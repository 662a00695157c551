package mcp

import "encoding/json"

// LatestProtocolVersion is the newest protocol revision this server
// understands. Clients requesting an unknown version are answered with
// this one.
const LatestProtocolVersion = "2025-06-18"

// ImplementationInfo describes the name and version of an MCP
// implementation, exchanged during initialization.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes the capabilities a client advertises
// during initialization.
type ClientCapabilities struct {
	Experimental map[string]json.RawMessage `json:"experimental,omitempty"`
}

// ServerCapabilities describes the capabilities a server advertises
// during initialization.
type ServerCapabilities struct {
	Experimental map[string]json.RawMessage `json:"experimental,omitempty"`
	Tools        *ToolsServerCapability     `json:"tools,omitempty"`
}

// ToolsServerCapability signals that the server exposes tools.
type ToolsServerCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// Tool describes a callable tool: its name, human-readable
// description, and the JSON schema of its arguments.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema is the JSON schema describing a tool's arguments.
// It is always an object schema.
type ToolInputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties *bool                     `json:"additionalProperties,omitempty"`
}

// SchemaProperty describes a single property within a tool input
// schema. Nested objects and arrays are supported one level at a time
// via Properties and Items.
type SchemaProperty struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Enum        []any                     `json:"enum,omitempty"`
	Default     any                       `json:"default,omitempty"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// ContentBlock is a single piece of content in a tool result. Only
// text blocks are produced by this server today.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewTextContent returns a text content block.
func NewTextContent(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}
