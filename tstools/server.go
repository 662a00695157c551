package tstools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

type serverInfoRecord struct {
	Name          string `ms:"virtualserver_name"`
	WelcomeMsg    string `ms:"virtualserver_welcomemessage"`
	Platform      string `ms:"virtualserver_platform"`
	Version       string `ms:"virtualserver_version"`
	MaxClients    int    `ms:"virtualserver_maxclients"`
	ClientsOnline int    `ms:"virtualserver_clientsonline"`
	ChannelCount  int    `ms:"virtualserver_channelsonline"`
	Uptime        int64  `ms:"virtualserver_uptime"`
	Status        string `ms:"virtualserver_status"`
	Port          int    `ms:"virtualserver_port"`
	UniqueID      string `ms:"virtualserver_unique_identifier"`
}

type whoamiRecord struct {
	LoginName       string `ms:"client_login_name"`
	Nickname        string `ms:"client_nickname"`
	ClientID        int    `ms:"client_id"`
	DatabaseID      int    `ms:"client_database_id"`
	ChannelID       int    `ms:"client_channel_id"`
	VirtualServerID int    `ms:"virtualserver_id"`
}

type connectionInfoRecord struct {
	BytesSent      uint64 `ms:"connection_bytes_sent_total"`
	BytesReceived  uint64 `ms:"connection_bytes_received_total"`
	PacketsSent    uint64 `ms:"connection_packets_sent_total"`
	PacketsRecv    uint64 `ms:"connection_packets_received_total"`
	BandwidthSent  uint64 `ms:"connection_bandwidth_sent_last_second_total"`
	BandwidthRecv  uint64 `ms:"connection_bandwidth_received_last_second_total"`
	FTBandwidthOut uint64 `ms:"connection_filetransfer_bandwidth_sent"`
	FTBandwidthIn  uint64 `ms:"connection_filetransfer_bandwidth_received"`
}

func (ts *toolset) connectToServer() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "connect_to_server", "connecting to server",
		"Connect to the configured TeamSpeak server and report the session identity and authentication level",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var who whoamiRecord
			ident := ""
			if _, err := sess.Exec(ctx, query.NewCommand("whoami"), &who); err == nil {
				ident = fmt.Sprintf(" as %s (nickname %q)", who.LoginName, who.Nickname)
			}
			creds := sess.Credentials()
			return fmt.Sprintf("Connected to TeamSpeak server at %s, virtual server %d%s. Authentication: %s.",
				creds.Addr(), int(creds.ServerID), ident, sess.AuthLevel()), nil
		})
}

func (ts *toolset) serverInfo() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "server_info", "retrieving server info",
		"Show name, version, slots and usage of the selected virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var info serverInfoRecord
			if _, err := sess.Exec(ctx, query.NewCommand("serverinfo"), &info); err != nil {
				return "", err
			}
			lines := []string{
				fmt.Sprintf("Name: %s", info.Name),
				fmt.Sprintf("Status: %s", info.Status),
				fmt.Sprintf("Version: %s (%s)", info.Version, info.Platform),
				fmt.Sprintf("Port: %d", info.Port),
				fmt.Sprintf("Clients: %d / %d", info.ClientsOnline, info.MaxClients),
				fmt.Sprintf("Channels: %d", info.ChannelCount),
				fmt.Sprintf("Uptime: %ds", info.Uptime),
				fmt.Sprintf("Unique ID: %s", info.UniqueID),
			}
			if info.WelcomeMsg != "" {
				lines = append(lines, fmt.Sprintf("Welcome message: %s", info.WelcomeMsg))
			}
			return section("Server information:", lines), nil
		})
}

func (ts *toolset) getConnectionInfo() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "get_connection_info", "retrieving connection info",
		"Show transport statistics for the server connection (bytes, packets, bandwidth)",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var info connectionInfoRecord
			if _, err := sess.Exec(ctx, query.NewCommand("serverrequestconnectioninfo"), &info); err != nil {
				return "", err
			}
			return section("Connection statistics:", []string{
				fmt.Sprintf("Bytes sent/received: %d / %d", info.BytesSent, info.BytesReceived),
				fmt.Sprintf("Packets sent/received: %d / %d", info.PacketsSent, info.PacketsRecv),
				fmt.Sprintf("Bandwidth last second (out/in): %d / %d B/s", info.BandwidthSent, info.BandwidthRecv),
				fmt.Sprintf("File transfer bandwidth (out/in): %d / %d B/s", info.FTBandwidthOut, info.FTBandwidthIn),
			}), nil
		})
}

func (ts *toolset) updateServerSettings() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Name                string  `json:"name,omitempty" jsonschema:"description=New virtual server name"`
		WelcomeMessage      *string `json:"welcome_message,omitempty" jsonschema:"description=Welcome message shown on connect"`
		MaxClients          *int    `json:"max_clients,omitempty" jsonschema:"description=Maximum client slots"`
		Password            *string `json:"password,omitempty" jsonschema:"description=Server join password (empty string clears it)"`
		HostMessage         *string `json:"hostmessage,omitempty" jsonschema:"description=Host message text"`
		HostMessageMode     *int    `json:"hostmessage_mode,omitempty" jsonschema:"description=0=none 1=log 2=modal 3=modal+quit"`
		DefaultServerGroup  *int    `json:"default_server_group,omitempty" jsonschema:"description=Server group assigned to new clients"`
		DefaultChannelGroup *int    `json:"default_channel_group,omitempty" jsonschema:"description=Channel group assigned to new clients"`
	}
	return newTool(ts, "update_server_settings", "updating server settings",
		"Edit virtual server properties such as name, welcome message, slots, password and host message",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("serveredit")
			var changed []string
			if a.Name != "" {
				cmd.WithArg("virtualserver_name", a.Name)
				changed = append(changed, "name")
			}
			if a.WelcomeMessage != nil {
				cmd.WithArg("virtualserver_welcomemessage", *a.WelcomeMessage)
				changed = append(changed, "welcome_message")
			}
			if a.MaxClients != nil {
				cmd.WithArg("virtualserver_maxclients", *a.MaxClients)
				changed = append(changed, "max_clients")
			}
			if a.Password != nil {
				cmd.WithArg("virtualserver_password", *a.Password)
				changed = append(changed, "password")
			}
			if a.HostMessage != nil {
				cmd.WithArg("virtualserver_hostmessage", *a.HostMessage)
				changed = append(changed, "hostmessage")
			}
			if a.HostMessageMode != nil {
				cmd.WithArg("virtualserver_hostmessage_mode", *a.HostMessageMode)
				changed = append(changed, "hostmessage_mode")
			}
			if a.DefaultServerGroup != nil {
				cmd.WithArg("virtualserver_default_server_group", *a.DefaultServerGroup)
				changed = append(changed, "default_server_group")
			}
			if a.DefaultChannelGroup != nil {
				cmd.WithArg("virtualserver_default_channel_group", *a.DefaultChannelGroup)
				changed = append(changed, "default_channel_group")
			}
			if len(changed) == 0 {
				return "No settings provided; nothing to update.", nil
			}
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Server settings updated: %s.", strings.Join(changed, ", ")), nil
		})
}

func (ts *toolset) diagnosePermissions() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "diagnose_permissions", "diagnosing permissions",
		"Probe common commands (whoami, serverinfo, clientlist, channellist, group lookup) and report which ones the current login may use",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var lines []string
			probe := func(label string, cmd *query.Command, out any) bool {
				if _, err := sess.Exec(ctx, cmd, out); err != nil {
					lines = append(lines, fmt.Sprintf("%s: FAILED (%v)", label, err))
					return false
				}
				lines = append(lines, fmt.Sprintf("%s: ok", label))
				return true
			}

			var who whoamiRecord
			haveWho := probe("whoami", query.NewCommand("whoami"), &who)
			if haveWho {
				lines = append(lines, fmt.Sprintf("  login=%s database_id=%d", who.LoginName, who.DatabaseID))
			}
			probe("serverinfo", query.NewCommand("serverinfo"), nil)
			probe("clientlist", query.NewCommand("clientlist"), nil)
			probe("channellist", query.NewCommand("channellist"), nil)
			if haveWho && who.DatabaseID > 0 {
				var groups []serverGroupEntry
				if probe("servergroupsbyclientid", query.NewCommand("servergroupsbyclientid").WithArg("cldbid", who.DatabaseID), &groups) {
					for _, g := range groups {
						lines = append(lines, fmt.Sprintf("  group %d: %s", g.ID, g.Name))
					}
				}
			}
			lines = append(lines, fmt.Sprintf("Authentication level: %s", sess.AuthLevel()))
			return section("Permission diagnostics:", lines), nil
		})
}
