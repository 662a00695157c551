// Package mcpservice provides the building blocks for implementing the MCP
// server side in a composable way. It exposes the capability interfaces
// consumed by the stdio handler plus helpers for declaring typed tools.
//
// Quick start:
//
//	type EchoArgs struct { Message string `json:"message"` }
//	tools := mcpservice.NewToolsContainer(
//	    mcpservice.NewTool("echo", func(ctx context.Context, s sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[EchoArgs]) error {
//	        return w.AppendText("you said: " + r.Args().Message)
//	    }, mcpservice.WithToolDescription("Echo a message back to the caller")),
//	)
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithToolsCapability(tools),
//	)
//
// Tool input schemas are reflected from the typed args struct using
// invopop/jsonschema and down-converted to the simplified MCP schema shape.
package mcpservice
