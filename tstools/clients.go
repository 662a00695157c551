package tstools

import (
	"context"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

// Kick reason IDs from the protocol.
const (
	kickFromChannel = 4
	kickFromServer  = 5
)

type clientEntry struct {
	ID         int    `ms:"clid"`
	ChannelID  int    `ms:"cid"`
	DatabaseID int    `ms:"client_database_id"`
	Nickname   string `ms:"client_nickname"`
	Type       int    `ms:"client_type"`
}

type clientInfoEntry struct {
	Nickname       string `ms:"client_nickname"`
	UniqueID       string `ms:"client_unique_identifier"`
	DatabaseID     int    `ms:"client_database_id"`
	ChannelID      int    `ms:"cid"`
	Version        string `ms:"client_version"`
	Platform       string `ms:"client_platform"`
	IP             string `ms:"connection_client_ip"`
	ConnectedTime  int64  `ms:"connection_connected_time"`
	IdleTime       int64  `ms:"client_idle_time"`
	Country        string `ms:"client_country"`
	Description    string `ms:"client_description"`
	ServerGroups   string `ms:"client_servergroups"`
	ChannelGroupID int    `ms:"client_channel_group_id"`
	TalkPower      int    `ms:"client_talk_power"`
	Away           int    `ms:"client_away"`
	AwayMessage    string `ms:"client_away_message"`
}

type dbClientEntry struct {
	DatabaseID int    `ms:"cldbid"`
	UniqueID   string `ms:"client_unique_identifier"`
	Nickname   string `ms:"client_nickname"`
}

func (ts *toolset) listClients() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "list_clients", "listing clients",
		"List clients connected to the virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var clients []clientEntry
			if _, err := sess.Exec(ctx, query.NewCommand("clientlist"), &clients); err != nil {
				return "", err
			}
			if len(clients) == 0 {
				return "No clients connected.", nil
			}
			lines := make([]string, 0, len(clients))
			for _, c := range clients {
				kind := ""
				if c.Type == 1 {
					kind = " [query]"
				}
				lines = append(lines, fmt.Sprintf("- %s (id %d, channel %d, db %d)%s", c.Nickname, c.ID, c.ChannelID, c.DatabaseID, kind))
			}
			return section(fmt.Sprintf("Connected clients (%d):", len(clients)), lines), nil
		})
}

func (ts *toolset) clientInfoDetailed() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID int `json:"client_id" jsonschema:"description=Client ID to inspect"`
	}
	return newTool(ts, "client_info_detailed", "retrieving client info",
		"Show detailed information about a connected client (identity, connection, state)",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var info clientInfoEntry
			if _, err := sess.Exec(ctx, query.NewCommand("clientinfo").WithArg("clid", a.ClientID), &info); err != nil {
				return "", err
			}
			lines := []string{
				fmt.Sprintf("Nickname: %s", info.Nickname),
				fmt.Sprintf("Unique ID: %s", info.UniqueID),
				fmt.Sprintf("Database ID: %d", info.DatabaseID),
				fmt.Sprintf("Channel: %d (channel group %d)", info.ChannelID, info.ChannelGroupID),
				fmt.Sprintf("Server groups: %s", info.ServerGroups),
				fmt.Sprintf("Version: %s (%s)", info.Version, info.Platform),
				fmt.Sprintf("Country: %s", info.Country),
				fmt.Sprintf("IP: %s", info.IP),
				fmt.Sprintf("Connected: %dms, idle %dms", info.ConnectedTime, info.IdleTime),
				fmt.Sprintf("Talk power: %d", info.TalkPower),
			}
			if info.Away == 1 {
				lines = append(lines, fmt.Sprintf("Away: %s", info.AwayMessage))
			}
			if info.Description != "" {
				lines = append(lines, fmt.Sprintf("Description: %s", info.Description))
			}
			return section(fmt.Sprintf("Client %d:", a.ClientID), lines), nil
		})
}

func (ts *toolset) searchClients() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Pattern     string `json:"pattern" jsonschema:"description=Name pattern or unique ID to search for"`
		SearchByUID bool   `json:"search_by_uid,omitempty" jsonschema:"description=Search the database by unique ID instead of online nicknames,default=false"`
	}
	return newTool(ts, "search_clients", "searching clients",
		"Find clients by nickname (online) or unique ID (database)",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			if a.SearchByUID {
				var hits []dbClientEntry
				cmd := query.NewCommand("clientdbfind").WithArg("pattern", a.Pattern).WithOption("-uid")
				if _, err := sess.Exec(ctx, cmd, &hits); err != nil {
					return "", err
				}
				if len(hits) == 0 {
					return fmt.Sprintf("No database clients match %q.", a.Pattern), nil
				}
				lines := make([]string, 0, len(hits))
				for _, h := range hits {
					lines = append(lines, fmt.Sprintf("- db %d: %s (%s)", h.DatabaseID, h.Nickname, h.UniqueID))
				}
				return section(fmt.Sprintf("Database matches for %q:", a.Pattern), lines), nil
			}
			var hits []clientEntry
			if _, err := sess.Exec(ctx, query.NewCommand("clientfind").WithArg("pattern", a.Pattern), &hits); err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return fmt.Sprintf("No connected clients match %q.", a.Pattern), nil
			}
			lines := make([]string, 0, len(hits))
			for _, h := range hits {
				lines = append(lines, fmt.Sprintf("- %s (id %d)", h.Nickname, h.ID))
			}
			return section(fmt.Sprintf("Online matches for %q:", a.Pattern), lines), nil
		})
}

func (ts *toolset) moveClient() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID  int `json:"client_id" jsonschema:"description=Client to move"`
		ChannelID int `json:"channel_id" jsonschema:"description=Destination channel ID"`
	}
	return newTool(ts, "move_client", "moving client",
		"Move a client to another channel",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("clientmove").
				WithArg("clid", a.ClientID).
				WithArg("cid", a.ChannelID)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Client %d moved to channel %d.", a.ClientID, a.ChannelID), nil
		})
}

func (ts *toolset) kickClient() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID   int    `json:"client_id" jsonschema:"description=Client to kick"`
		Reason     string `json:"reason,omitempty" jsonschema:"description=Reason shown to the client,default=Expelled by AI"`
		FromServer bool   `json:"from_server,omitempty" jsonschema:"description=Kick from the server instead of just the channel,default=false"`
	}
	return newTool(ts, "kick_client", "kicking client",
		"Kick a client from their channel or from the server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			reason := a.Reason
			if reason == "" {
				reason = "Expelled by AI"
			}
			reasonID := kickFromChannel
			scope := "channel"
			if a.FromServer {
				reasonID = kickFromServer
				scope = "server"
			}
			cmd := query.NewCommand("clientkick").
				WithArg("clid", a.ClientID).
				WithArg("reasonid", reasonID).
				WithArg("reasonmsg", reason)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Client %d kicked from %s (%s).", a.ClientID, scope, reason), nil
		})
}

func (ts *toolset) banClient() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID int    `json:"client_id" jsonschema:"description=Client to ban"`
		Reason   string `json:"reason,omitempty" jsonschema:"description=Ban reason,default=Banned by AI"`
		Duration int    `json:"duration,omitempty" jsonschema:"description=Ban duration in seconds; 0 is permanent,default=0"`
	}
	return newTool(ts, "ban_client", "banning client",
		"Ban a connected client, permanently or for a duration in seconds",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			reason := a.Reason
			if reason == "" {
				reason = "Banned by AI"
			}
			cmd := query.NewCommand("banclient").
				WithArg("clid", a.ClientID).
				WithArg("time", a.Duration).
				WithArg("banreason", reason)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			if a.Duration > 0 {
				return fmt.Sprintf("Client %d banned for %d seconds (%s).", a.ClientID, a.Duration, reason), nil
			}
			return fmt.Sprintf("Client %d banned permanently (%s).", a.ClientID, reason), nil
		})
}
