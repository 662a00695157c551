package query

import (
	"errors"
	"fmt"
	"strings"
)

// PermissionDeniedID is the ServerQuery error id for insufficient client
// permissions.
const PermissionDeniedID = 2568

// RemoteError is a non-zero error status returned by the ServerQuery server.
type RemoteError struct {
	ID  int
	Msg string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error id=%d msg=%q", e.ID, e.Msg)
}

// ConnectionError wraps a failure to establish or select a ServerQuery
// session, keeping the endpoint for diagnostics.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to TeamSpeak server at %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsPermissionDenied reports whether err is the server's insufficient client
// permissions rejection. The string fallback catches errors that crossed a
// formatting boundary and lost their type.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.ID == PermissionDeniedID
	}
	s := err.Error()
	return strings.Contains(s, "error id 2568") || strings.Contains(s, "insufficient client permissions")
}

// IsConnectionError reports whether err stems from establishing the session
// rather than from the command itself.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
