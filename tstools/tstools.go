// Package tstools defines the TeamSpeak administration tool catalog exposed
// over MCP. Each tool is a typed argument struct plus a handler that resolves
// a query session, runs one or more ServerQuery commands and renders a text
// reply. Remote failures are reported in-band through IsError envelopes; only
// an unknown tool name escapes as a protocol error.
package tstools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
	"github.com/ggoodman/teamspeak-mcp/sessions"
)

// CredentialArgs is embedded in every tool argument struct so callers can
// target a different server or identity for a single call. When absent the
// shared session is used.
type CredentialArgs struct {
	Credentials *query.Credentials `json:"teamspeak_credentials,omitempty" jsonschema:"description=Override connection credentials for this call only"`
}

func (c CredentialArgs) credentials() *query.Credentials { return c.Credentials }

type credentialed interface {
	credentials() *query.Credentials
}

type toolset struct {
	manager *query.Manager
	log     *slog.Logger
}

// NewToolSet assembles the full tool catalog over the given manager.
func NewToolSet(m *query.Manager, log *slog.Logger) *mcpservice.ToolsContainer {
	if log == nil {
		log = slog.Default()
	}
	ts := &toolset{manager: m, log: log}
	return mcpservice.NewToolsContainer(
		// Server
		ts.connectToServer(),
		ts.serverInfo(),
		ts.getConnectionInfo(),
		ts.updateServerSettings(),
		ts.diagnosePermissions(),
		// Messaging
		ts.sendChannelMessage(),
		ts.sendPrivateMessage(),
		ts.pokeClient(),
		// Clients
		ts.listClients(),
		ts.clientInfoDetailed(),
		ts.searchClients(),
		ts.moveClient(),
		ts.kickClient(),
		ts.banClient(),
		// Channels
		ts.listChannels(),
		ts.channelInfo(),
		ts.findChannels(),
		ts.createChannel(),
		ts.deleteChannel(),
		ts.updateChannel(),
		ts.setChannelTalkPower(),
		ts.manageChannelPermissions(),
		// Groups & permissions
		ts.listServerGroups(),
		ts.createServerGroup(),
		ts.assignClientToGroup(),
		ts.manageServerGroupPermissions(),
		ts.manageUserPermissions(),
		// Bans & complaints
		ts.listBans(),
		ts.manageBanRules(),
		ts.listComplaints(),
		// Privilege tokens
		ts.listPrivilegeTokens(),
		ts.createPrivilegeToken(),
		// Files
		ts.listFiles(),
		ts.getFileInfo(),
		ts.manageFilePermissions(),
		// Logs
		ts.viewServerLogs(),
		ts.getInstanceLogs(),
		ts.addLogEntry(),
		// Snapshots
		ts.createServerSnapshot(),
		ts.deployServerSnapshot(),
	)
}

// handlerFunc is the shape of a tool body once session resolution, connection
// and error rendering have been taken care of.
type handlerFunc[A any] func(ctx context.Context, sess *query.Session, a A) (string, error)

// newTool wraps a handlerFunc with the shared dispatch plumbing: per-call
// credential resolution, lazy connect, ephemeral session teardown and error
// envelope rendering. op names the activity for error messages, e.g.
// "kicking client".
func newTool[A credentialed](ts *toolset, name, op, desc string, fn handlerFunc[A]) mcpservice.StaticTool {
	return mcpservice.NewTool(name, func(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[A]) error {
		a := r.Args()
		sess := ts.manager.Resolve(a.credentials())
		if sess.Ephemeral() {
			defer func() { _ = sess.Close() }()
		}
		if err := sess.Connect(ctx); err != nil {
			ts.log.Error("connection failed", slog.String("tool", name), slog.String("err", err.Error()))
			w.SetError(true)
			return w.AppendText(fmt.Sprintf("Failed to connect to TeamSpeak server: %v", err))
		}
		text, err := fn(ctx, sess, a)
		if err != nil {
			ts.log.Warn("tool failed", slog.String("tool", name), slog.String("err", err.Error()))
			w.SetError(true)
			return w.AppendText(renderError(op, err))
		}
		return w.AppendText(text)
	}, mcpservice.WithToolDescription(desc), mcpservice.WithToolAllowAdditionalProperties(true))
}

// permissionHint is appended when the server rejects a command with
// insufficient client permissions (error id 2568).
const permissionHint = `The query account lacks the permissions required for this command (error id 2568).
Fixes:
- Log in with the serveradmin query account, or
- Grant the needed permissions to the query login's server group (see manage_server_group_permissions), or
- Pass teamspeak_credentials with a more privileged login for this call.`

// renderError turns a handler failure into the reply text for an IsError
// envelope.
func renderError(op string, err error) string {
	if query.IsPermissionDenied(err) {
		return fmt.Sprintf("Error %s: insufficient client permissions.\n%s", op, permissionHint)
	}
	return fmt.Sprintf("Error %s: %v", op, err)
}

// section renders a titled block of lines.
func section(title string, lines []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return b.String()
}
