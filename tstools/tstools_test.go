package tstools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/teamspeak-mcp/mcp"
	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
	"github.com/ggoodman/teamspeak-mcp/sessions"
)

// fakeConn satisfies query.Conn. Command behavior is scripted through exec.
type fakeConn struct {
	exec   func(cmd *query.Command, out any) ([]string, error)
	closed bool
}

func (c *fakeConn) Use(serverID int) error { return nil }
func (c *fakeConn) Login(user, password string) error { return nil }
func (c *fakeConn) TokenUse(token string) error { return nil }
func (c *fakeConn) Whoami() (string, error) { return "client_login_name=serveradmin", nil }
func (c *fakeConn) Close() error { c.closed = true; return nil }

func (c *fakeConn) Exec(cmd *query.Command, out any) ([]string, error) {
	if c.exec == nil {
		return nil, nil
	}
	return c.exec(cmd, out)
}

// testRig wires the tool catalog over a fake dialer that records every dial.
type testRig struct {
	tools *mcpservice.ToolsContainer
	mu    sync.Mutex
	conns []*fakeConn
	hosts []string
	exec  func(cmd *query.Command, out any) ([]string, error)

	dialErr error
}

func newTestRig(t *testing.T, defaults query.Credentials) *testRig {
	t.Helper()
	rig := &testRig{}
	m := query.NewManager(defaults,
		query.WithLogger(slog.Default()),
		query.WithDialer(func(ctx context.Context, creds query.Credentials) (query.Conn, error) {
			if rig.dialErr != nil {
				return nil, rig.dialErr
			}
			conn := &fakeConn{exec: func(cmd *query.Command, out any) ([]string, error) {
				if rig.exec == nil {
					return nil, nil
				}
				return rig.exec(cmd, out)
			}}
			rig.mu.Lock()
			rig.conns = append(rig.conns, conn)
			rig.hosts = append(rig.hosts, creds.Host)
			rig.mu.Unlock()
			return conn, nil
		}))
	rig.tools = NewToolSet(m, slog.Default())
	return rig
}

func (rig *testRig) call(t *testing.T, name, rawArgs string) *mcp.CallToolResult {
	t.Helper()
	sess := sessions.NewEphemeral("tester", mcp.LatestProtocolVersion)
	res, err := rig.tools.CallTool(context.Background(), sess, &mcp.CallToolRequestReceived{
		Name:      name,
		Arguments: json.RawMessage(rawArgs),
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return res
}

func text(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestMissingRequiredArg_DoesNotConnect(t *testing.T) {
	rig := newTestRig(t, query.Credentials{})

	res := rig.call(t, "kick_client", `{}`)
	if !res.IsError {
		t.Fatal("expected validation error envelope")
	}
	if got := text(res); got != "missing required argument: client_id" {
		t.Fatalf("text = %q", got)
	}
	if len(rig.conns) != 0 {
		t.Fatalf("dialed %d times during argument validation, want 0", len(rig.conns))
	}
}

func TestConnectFailure_ReportedInBand(t *testing.T) {
	rig := newTestRig(t, query.Credentials{Host: "down.example.com"})
	rig.dialErr = &query.ConnectionError{Addr: "down.example.com:10011", Err: errors.New("connection refused")}

	res := rig.call(t, "server_info", `{}`)
	if !res.IsError {
		t.Fatal("expected error envelope")
	}
	if got := text(res); !strings.HasPrefix(got, "Failed to connect to TeamSpeak server:") {
		t.Fatalf("text = %q", got)
	}
}

func TestPermissionDenied_IncludesRemediation(t *testing.T) {
	rig := newTestRig(t, query.Credentials{})
	rig.exec = func(cmd *query.Command, out any) ([]string, error) {
		return nil, &query.RemoteError{ID: query.PermissionDeniedID, Msg: "insufficient client permissions"}
	}

	res := rig.call(t, "server_info", `{}`)
	if !res.IsError {
		t.Fatal("expected error envelope")
	}
	got := text(res)
	if !strings.Contains(got, "Error retrieving server info: insufficient client permissions.") {
		t.Fatalf("text = %q", got)
	}
	if !strings.Contains(got, "teamspeak_credentials") || !strings.Contains(got, "serveradmin") {
		t.Fatalf("remediation hint missing: %q", got)
	}
}

func TestListClients_RendersEntries(t *testing.T) {
	rig := newTestRig(t, query.Credentials{})
	rig.exec = func(cmd *query.Command, out any) ([]string, error) {
		if cmd.Name != "clientlist" {
			return nil, nil
		}
		clients := out.(*[]clientEntry)
		*clients = []clientEntry{
			{ID: 3, ChannelID: 1, DatabaseID: 7, Nickname: "Alice"},
			{ID: 4, ChannelID: 1, DatabaseID: 2, Nickname: "admin", Type: 1},
		}
		return nil, nil
	}

	res := rig.call(t, "list_clients", `{}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(res))
	}
	got := text(res)
	if !strings.Contains(got, "Connected clients (2):") {
		t.Fatalf("header missing: %q", got)
	}
	if !strings.Contains(got, "Alice (id 3, channel 1, db 7)") {
		t.Fatalf("entry missing: %q", got)
	}
	if !strings.Contains(got, "admin (id 4, channel 1, db 2) [query]") {
		t.Fatalf("query marker missing: %q", got)
	}
}

func TestEphemeralCredentials_UseSeparateSession(t *testing.T) {
	rig := newTestRig(t, query.Credentials{Host: "main.example.com"})

	res := rig.call(t, "list_clients", `{"teamspeak_credentials":{"host":"other.example.com"}}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(res))
	}
	if len(rig.hosts) != 1 || rig.hosts[0] != "other.example.com" {
		t.Fatalf("dialed hosts = %v, want [other.example.com]", rig.hosts)
	}
	if !rig.conns[0].closed {
		t.Fatal("ephemeral connection not closed after the call")
	}

	// Next call without an override dials the configured server.
	res = rig.call(t, "list_clients", `{}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(res))
	}
	if len(rig.hosts) != 2 || rig.hosts[1] != "main.example.com" {
		t.Fatalf("dialed hosts = %v", rig.hosts)
	}
	if rig.conns[1].closed {
		t.Fatal("shared connection closed after the call")
	}
}

func TestEphemeralCredentials_ConcurrentCallsStayIsolated(t *testing.T) {
	rig := newTestRig(t, query.Credentials{Host: "main.example.com"})
	sess := sessions.NewEphemeral("tester", mcp.LatestProtocolVersion)

	overrides := []string{"alpha.example.com", "beta.example.com"}
	results := make([]*mcp.CallToolResult, len(overrides))
	errs := make([]error, len(overrides))
	var wg sync.WaitGroup
	for i, host := range overrides {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			args := `{"teamspeak_credentials":{"host":"` + host + `"}}`
			results[i], errs[i] = rig.tools.CallTool(context.Background(), sess, &mcp.CallToolRequestReceived{
				Name:      "list_clients",
				Arguments: json.RawMessage(args),
			})
		}(i, host)
	}
	wg.Wait()

	for i := range overrides {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if results[i].IsError {
			t.Fatalf("call %d failed: %s", i, text(results[i]))
		}
	}
	if len(rig.conns) != 2 {
		t.Fatalf("dialed %d times, want 2", len(rig.conns))
	}
	dialed := map[string]bool{}
	for i, conn := range rig.conns {
		dialed[rig.hosts[i]] = true
		if !conn.closed {
			t.Fatalf("connection to %s not closed after the call", rig.hosts[i])
		}
	}
	for _, host := range overrides {
		if !dialed[host] {
			t.Fatalf("dialed hosts = %v, missing %s", rig.hosts, host)
		}
	}
}

func TestSharedSessionReusedAcrossCalls(t *testing.T) {
	rig := newTestRig(t, query.Credentials{})

	rig.call(t, "list_clients", `{}`)
	rig.call(t, "server_info", `{}`)
	if len(rig.conns) != 1 {
		t.Fatalf("dialed %d times across two calls, want 1", len(rig.conns))
	}
}

func TestConnectToServer_ReportsIdentityAndAuth(t *testing.T) {
	rig := newTestRig(t, query.Credentials{Host: "ts.example.com", Password: "secret"})
	rig.exec = func(cmd *query.Command, out any) ([]string, error) {
		if cmd.Name == "whoami" {
			who := out.(*whoamiRecord)
			who.LoginName = "serveradmin"
			who.Nickname = "bot"
		}
		return nil, nil
	}

	res := rig.call(t, "connect_to_server", `{}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(res))
	}
	got := text(res)
	if !strings.Contains(got, "ts.example.com:10011") {
		t.Fatalf("address missing: %q", got)
	}
	if !strings.Contains(got, `as serveradmin (nickname "bot")`) {
		t.Fatalf("identity missing: %q", got)
	}
	if !strings.Contains(got, "Authentication: password.") {
		t.Fatalf("auth level missing: %q", got)
	}
}

func TestToolCatalog_Complete(t *testing.T) {
	rig := newTestRig(t, query.Credentials{})
	sess := sessions.NewEphemeral("tester", mcp.LatestProtocolVersion)

	seen := map[string]bool{}
	var cursor *string
	for {
		page, err := rig.tools.ListTools(context.Background(), sess, cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, tool := range page.Items {
			if seen[tool.Name] {
				t.Fatalf("duplicate tool %q", tool.Name)
			}
			seen[tool.Name] = true
			if tool.Description == "" {
				t.Fatalf("tool %q has no description", tool.Name)
			}
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	want := []string{
		"connect_to_server", "server_info", "get_connection_info", "update_server_settings", "diagnose_permissions",
		"send_channel_message", "send_private_message", "poke_client",
		"list_clients", "client_info_detailed", "search_clients", "move_client", "kick_client", "ban_client",
		"list_channels", "channel_info", "find_channels", "create_channel", "delete_channel", "update_channel",
		"set_channel_talk_power", "manage_channel_permissions",
		"list_server_groups", "create_server_group", "assign_client_to_group",
		"manage_server_group_permissions", "manage_user_permissions",
		"list_bans", "manage_ban_rules", "list_complaints",
		"list_privilege_tokens", "create_privilege_token",
		"list_files", "get_file_info", "manage_file_permissions",
		"view_server_logs", "get_instance_logs", "add_log_entry",
		"create_server_snapshot", "deploy_server_snapshot",
	}
	for _, name := range want {
		if !seen[name] {
			t.Fatalf("tool %q missing from catalog", name)
		}
	}
	if len(seen) != len(want) {
		t.Fatalf("catalog has %d tools, want %d", len(seen), len(want))
	}
}
