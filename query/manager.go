package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// AuthLevel records how far down the login fallback chain a session got.
type AuthLevel int

const (
	// AuthNone means the session has not connected yet.
	AuthNone AuthLevel = iota
	// AuthAnonymous means both password login and token redemption were
	// unavailable or failed; the session runs with guest permissions.
	AuthAnonymous
	// AuthToken means a privilege key was redeemed after password login
	// failed or was not configured.
	AuthToken
	// AuthFull means the query login succeeded.
	AuthFull
)

func (a AuthLevel) String() string {
	switch a {
	case AuthFull:
		return "password"
	case AuthToken:
		return "token"
	case AuthAnonymous:
		return "anonymous"
	default:
		return "none"
	}
}

// Session is one logical ServerQuery connection. All command execution is
// serialized through its mutex, so a Session is safe for concurrent use even
// though the underlying Conn is not.
type Session struct {
	creds     Credentials
	dial      Dialer
	log       *slog.Logger
	ephemeral bool

	mu        sync.Mutex
	conn      Conn
	authLevel AuthLevel
}

// Credentials returns the endpoint this session targets.
func (s *Session) Credentials() Credentials { return s.creds }

// Ephemeral reports whether the session was created for a single tool call
// and should be closed when the call completes.
func (s *Session) Ephemeral() bool { return s.ephemeral }

// IsConnected reports whether the session currently holds a live connection.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// AuthLevel reports the outcome of the login fallback chain.
func (s *Session) AuthLevel() AuthLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authLevel
}

// Connect establishes the connection, selects the virtual server and walks
// the login chain: password login, then privilege key redemption, then
// anonymous. Auth failures degrade with a warning; only dial and server
// selection failures are fatal.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	conn, err := s.dial(ctx, s.creds)
	if err != nil {
		return err
	}

	if err := conn.Use(int(s.creds.ServerID)); err != nil {
		_ = conn.Close()
		return &ConnectionError{Addr: s.creds.Addr(), Err: fmt.Errorf("select virtual server %d: %w", int(s.creds.ServerID), err)}
	}

	// Fallback chain: password login, then privilege key redemption, then
	// anonymous. The privilege key defaults to the password itself so a
	// misconfigured login still has a second chance.
	level := AuthAnonymous
	if s.creds.Password != "" {
		if err := conn.Login(s.creds.User, s.creds.Password); err != nil {
			s.log.Warn("query login failed, falling back",
				slog.String("user", s.creds.User),
				slog.String("err", err.Error()))
		} else {
			level = AuthFull
		}
	}
	if level != AuthFull {
		token := s.creds.Token
		if token == "" {
			token = s.creds.Password
		}
		if token != "" {
			if err := conn.TokenUse(token); err != nil {
				s.log.Warn("privilege key redemption failed, continuing anonymously",
					slog.String("err", err.Error()))
			} else {
				level = AuthToken
			}
		}
	}

	// Smoke test. Failure is logged but not fatal; some servers restrict
	// whoami for anonymous peers.
	if ident, err := conn.Whoami(); err != nil {
		s.log.Warn("whoami smoke test failed", slog.String("err", err.Error()))
	} else {
		s.log.Debug("session identity", slog.String("whoami", ident))
	}

	s.conn = conn
	s.authLevel = level
	s.log.Info("connected to query endpoint",
		slog.String("addr", s.creds.Addr()),
		slog.Int("server_id", int(s.creds.ServerID)),
		slog.String("auth", level.String()))
	return nil
}

// Exec connects the session if needed and runs one command while holding the
// session lock.
func (s *Session) Exec(ctx context.Context, cmd *Command, out any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}
	return s.conn.Exec(cmd, out)
}

// Close tears down the connection. The session may be reconnected later.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.authLevel = AuthNone
	return err
}

// Manager owns the shared session every tool call funnels through by
// default, and mints ephemeral sessions for calls that carry their own
// credentials.
type Manager struct {
	log      *slog.Logger
	dial     Dialer
	defaults Credentials
	shared   *Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer overrides the connection dialer. Tests use this to substitute
// an in-memory Conn.
func WithDialer(d Dialer) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.dial = d
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager builds a Manager around the given default credentials.
func NewManager(defaults Credentials, opts ...ManagerOption) *Manager {
	m := &Manager{
		log:      slog.Default(),
		dial:     DialTS3,
		defaults: defaults.Normalize(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.shared = &Session{creds: m.defaults, dial: m.dial, log: m.log}
	return m
}

// Shared returns the long-lived session backed by the default credentials.
func (m *Manager) Shared() *Session {
	return m.shared
}

// Resolve picks the session for a tool call. A nil override selects the
// shared session. Absent override fields fall back to the configured
// defaults, which already carry the environment layer, and an override that
// resolves to those defaults shares the process-wide session. Anything else
// gets a fresh ephemeral session the caller must Close.
func (m *Manager) Resolve(override *Credentials) *Session {
	if override == nil {
		return m.shared
	}
	creds := override.Merge(m.defaults)
	if creds == m.defaults {
		return m.shared
	}
	return &Session{creds: creds, dial: m.dial, log: m.log, ephemeral: true}
}

// Shutdown closes the shared session.
func (m *Manager) Shutdown() {
	if err := m.shared.Close(); err != nil {
		m.log.Warn("error closing shared session", slog.String("err", err.Error()))
	}
}
