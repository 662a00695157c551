// Package sessions defines the session abstraction shared by the MCP
// transport and server capability code. A session represents the
// negotiated protocol version and principal for a connected client.
// The stdio transport carries exactly one session per process, so the
// only implementation here is an ephemeral in-memory one.
package sessions

import "github.com/google/uuid"

// Session is the per-connection view exposed to capability code.
type Session interface {
	// SessionID returns the unique identifier for this session.
	SessionID() string

	// UserID returns the identifier of the principal the session
	// belongs to, or an empty string when unauthenticated.
	UserID() string

	// ProtocolVersion returns the protocol revision negotiated during
	// the initialize handshake.
	ProtocolVersion() string
}

type ephemeralSession struct {
	id              string
	userID          string
	protocolVersion string
}

// NewEphemeral returns a session with a freshly generated identifier.
// It carries no durable state and expires with the process.
func NewEphemeral(userID, protocolVersion string) Session {
	return &ephemeralSession{
		id:              uuid.NewString(),
		userID:          userID,
		protocolVersion: protocolVersion,
	}
}

func (s *ephemeralSession) SessionID() string       { return s.id }
func (s *ephemeralSession) UserID() string          { return s.userID }
func (s *ephemeralSession) ProtocolVersion() string { return s.protocolVersion }
