// Package mcp defines the wire-level types for the Model Context
// Protocol surface this server speaks: the initialize handshake, the
// tools listing, and tool invocation. Types here mirror the protocol
// schema and carry no behavior; the mcpservice package provides the
// server-side implementations that produce and consume them.
package mcp
