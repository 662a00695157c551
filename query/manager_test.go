package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// fakeConn records the operations performed on it and fails the ones the
// test asks it to.
type fakeConn struct {
	ops []string

	failLogin  bool
	failToken  bool
	failUse    bool
	failWhoami bool

	closed   bool
	closeErr error

	exec func(cmd *Command, out any) ([]string, error)
}

func (c *fakeConn) Use(serverID int) error {
	c.ops = append(c.ops, "use")
	if c.failUse {
		return &RemoteError{ID: 1024, Msg: "invalid serverID"}
	}
	return nil
}

func (c *fakeConn) Login(user, password string) error {
	c.ops = append(c.ops, "login")
	if c.failLogin {
		return &RemoteError{ID: 520, Msg: "invalid loginname or password"}
	}
	return nil
}

func (c *fakeConn) TokenUse(token string) error {
	c.ops = append(c.ops, "tokenuse")
	if c.failToken {
		return &RemoteError{ID: 1538, Msg: "invalid token"}
	}
	return nil
}

func (c *fakeConn) Whoami() (string, error) {
	c.ops = append(c.ops, "whoami")
	if c.failWhoami {
		return "", &RemoteError{ID: PermissionDeniedID, Msg: "insufficient client permissions"}
	}
	return "client_login_name=serveradmin", nil
}

func (c *fakeConn) Exec(cmd *Command, out any) ([]string, error) {
	c.ops = append(c.ops, "exec:"+cmd.Name)
	if c.exec != nil {
		return c.exec(cmd, out)
	}
	return nil, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return c.closeErr
}

func testManager(t *testing.T, conn *fakeConn, creds Credentials) *Manager {
	t.Helper()
	return NewManager(creds,
		WithLogger(slog.Default()),
		WithDialer(func(ctx context.Context, c Credentials) (Conn, error) {
			return conn, nil
		}))
}

func TestConnect_PasswordLogin(t *testing.T) {
	conn := &fakeConn{}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := sess.AuthLevel(); got != AuthFull {
		t.Fatalf("auth level = %v, want password", got)
	}
	want := []string{"use", "login", "whoami"}
	if len(conn.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", conn.ops, want)
	}
	for i, op := range want {
		if conn.ops[i] != op {
			t.Fatalf("ops[%d] = %q, want %q", i, conn.ops[i], op)
		}
	}
}

func TestConnect_FallsBackToToken(t *testing.T) {
	conn := &fakeConn{failLogin: true}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := sess.AuthLevel(); got != AuthToken {
		t.Fatalf("auth level = %v, want token", got)
	}
	want := []string{"use", "login", "tokenuse", "whoami"}
	for i, op := range want {
		if conn.ops[i] != op {
			t.Fatalf("ops[%d] = %q, want %q (all: %v)", i, conn.ops[i], op, conn.ops)
		}
	}
}

func TestConnect_FallsBackToAnonymous(t *testing.T) {
	conn := &fakeConn{failLogin: true, failToken: true}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := sess.AuthLevel(); got != AuthAnonymous {
		t.Fatalf("auth level = %v, want anonymous", got)
	}
}

func TestConnect_NoPasswordSkipsAuth(t *testing.T) {
	conn := &fakeConn{}
	m := testManager(t, conn, Credentials{})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, op := range conn.ops {
		if op == "login" || op == "tokenuse" {
			t.Fatalf("auth attempted without credentials: %v", conn.ops)
		}
	}
	if got := sess.AuthLevel(); got != AuthAnonymous {
		t.Fatalf("auth level = %v, want anonymous", got)
	}
}

func TestConnect_UseFailureIsFatal(t *testing.T) {
	conn := &fakeConn{failUse: true}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	err := sess.Connect(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConnectionError", err)
	}
	if !conn.closed {
		t.Fatal("connection not closed after use failure")
	}
	if sess.IsConnected() {
		t.Fatal("session reports connected after fatal failure")
	}
}

func TestConnect_WhoamiFailureNotFatal(t *testing.T) {
	conn := &fakeConn{failWhoami: true}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !sess.IsConnected() {
		t.Fatal("session not connected despite only whoami failing")
	}
}

func TestConnect_Idempotent(t *testing.T) {
	conn := &fakeConn{}
	m := testManager(t, conn, Credentials{Password: "secret"})

	sess := m.Shared()
	for i := 0; i < 3; i++ {
		if err := sess.Connect(context.Background()); err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
	}
	uses := 0
	for _, op := range conn.ops {
		if op == "use" {
			uses++
		}
	}
	if uses != 1 {
		t.Fatalf("dialed %d times, want 1", uses)
	}
}

func TestClose_ClearsHandleEvenOnError(t *testing.T) {
	conn := &fakeConn{closeErr: errors.New("broken pipe")}
	m := testManager(t, conn, Credentials{})

	sess := m.Shared()
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := sess.Close(); err == nil {
		t.Fatal("expected close error to propagate")
	}
	if sess.IsConnected() {
		t.Fatal("handle not cleared after close")
	}
	if got := sess.AuthLevel(); got != AuthNone {
		t.Fatalf("auth level = %v, want none", got)
	}
}

func TestResolve_SharedVsEphemeral(t *testing.T) {
	m := testManager(t, &fakeConn{}, Credentials{Host: "main"})

	if got := m.Resolve(nil); got != m.Shared() {
		t.Fatal("nil override did not resolve to the shared session")
	}

	eph := m.Resolve(&Credentials{Host: "other"})
	if eph == m.Shared() {
		t.Fatal("override resolved to the shared session")
	}
	if !eph.Ephemeral() {
		t.Fatal("override session not marked ephemeral")
	}
	creds := eph.Credentials()
	if creds.Host != "other" {
		t.Fatalf("host = %q, want other", creds.Host)
	}
	// Unset fields pick up defaults.
	if int(creds.Port) != DefaultPort || creds.User != DefaultUser || int(creds.ServerID) != DefaultServerID {
		t.Fatalf("defaults not applied: %+v", creds)
	}
}

func TestResolve_OverrideInheritsConfiguredSecrets(t *testing.T) {
	m := testManager(t, &fakeConn{}, Credentials{Host: "main", Password: "secret", Token: "key"})

	eph := m.Resolve(&Credentials{Host: "other"})
	creds := eph.Credentials()
	if creds.Password != "secret" || creds.Token != "key" {
		t.Fatalf("configured credentials not inherited: %+v", creds)
	}

	eph = m.Resolve(&Credentials{Host: "other", Password: "override"})
	if got := eph.Credentials().Password; got != "override" {
		t.Fatalf("password = %q, want override", got)
	}
}

func TestResolve_DefaultEquivalentOverrideIsShared(t *testing.T) {
	m := testManager(t, &fakeConn{}, Credentials{Host: "main", Password: "secret"})

	for _, override := range []*Credentials{
		{},
		{Host: "main"},
		{Host: "main", Port: DefaultPort, User: DefaultUser, Password: "secret", ServerID: DefaultServerID},
	} {
		if got := m.Resolve(override); got != m.Shared() {
			t.Fatalf("override %+v did not resolve to the shared session", override)
		}
	}
}

func TestResolve_ConcurrentDistinctOverrides(t *testing.T) {
	m := NewManager(Credentials{Host: "main"},
		WithLogger(slog.Default()),
		WithDialer(func(ctx context.Context, c Credentials) (Conn, error) {
			return &fakeConn{}, nil
		}))

	hosts := []string{"alpha", "beta"}
	sessions := make([]*Session, len(hosts))
	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			sess := m.Resolve(&Credentials{Host: host})
			if err := sess.Connect(context.Background()); err != nil {
				t.Errorf("connect %s: %v", host, err)
			}
			defer func() { _ = sess.Close() }()
			sessions[i] = sess
		}(i, host)
	}
	wg.Wait()

	if sessions[0] == sessions[1] {
		t.Fatal("distinct overrides resolved to the same session")
	}
	for i, sess := range sessions {
		if sess == m.Shared() {
			t.Fatalf("override %d resolved to the shared session", i)
		}
		if !sess.Ephemeral() {
			t.Fatalf("override %d session not ephemeral", i)
		}
		if got := sess.Credentials().Host; got != hosts[i] {
			t.Fatalf("session %d host = %q, want %q", i, got, hosts[i])
		}
	}
	if m.Shared().IsConnected() {
		t.Fatal("shared session connected by override traffic")
	}
}

func TestExec_ConnectsLazily(t *testing.T) {
	conn := &fakeConn{}
	m := testManager(t, conn, Credentials{})

	sess := m.Shared()
	if sess.IsConnected() {
		t.Fatal("connected before first command")
	}
	if _, err := sess.Exec(context.Background(), NewCommand("serverinfo"), nil); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !sess.IsConnected() {
		t.Fatal("exec did not establish the connection")
	}
	last := conn.ops[len(conn.ops)-1]
	if last != "exec:serverinfo" {
		t.Fatalf("last op = %q, want exec:serverinfo", last)
	}
}
