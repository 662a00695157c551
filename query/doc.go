// Package query manages the connection to a TeamSpeak ServerQuery endpoint.
// It owns credential resolution, the login fallback chain, the single shared
// session the tool layer funnels through, and the cursor-driven log reader.
//
// The wire protocol itself is handled by github.com/multiplay/go-ts3 behind
// the Conn interface, so tests can substitute an in-memory connection.
package query
