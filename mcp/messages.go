package mcp

import "encoding/json"

// Method names for the protocol operations this server handles.
const (
	InitializeMethod              = "initialize"
	InitializedNotificationMethod = "notifications/initialized"
	PingMethod                    = "ping"
	ToolsListMethod               = "tools/list"
	ToolsCallMethod               = "tools/call"
)

// InitializeRequest is the params payload of an initialize request.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult is the result payload of an initialize response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// PaginatedRequest carries the optional cursor for list operations.
type PaginatedRequest struct {
	Cursor string `json:"cursor,omitempty"`
}

// PaginatedResult carries the continuation cursor for list results.
// An empty NextCursor means the listing is complete.
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitempty"`
}

// ListToolsRequest is the params payload of a tools/list request.
type ListToolsRequest struct {
	PaginatedRequest
}

// ListToolsResult is the result payload of a tools/list response.
type ListToolsResult struct {
	PaginatedResult
	Tools []Tool `json:"tools"`
}

// CallToolRequestReceived is the params payload of a tools/call
// request as received from the wire. Arguments are left raw so the
// tool implementation can decode them against its own schema.
type CallToolRequestReceived struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the result payload of a tools/call response.
// IsError distinguishes a tool-level failure (reported in-band as
// content) from a protocol-level error.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}
