package tstools

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

type banEntry struct {
	ID       int    `ms:"banid"`
	IP       string `ms:"ip"`
	Name     string `ms:"name"`
	UID      string `ms:"uid"`
	Reason   string `ms:"reason"`
	Duration int    `ms:"duration"`
	Created  int64  `ms:"created"`
	Invoker  string `ms:"invokername"`
}

type complaintEntry struct {
	TargetDBID int    `ms:"tcldbid"`
	TargetName string `ms:"tname"`
	SourceDBID int    `ms:"fcldbid"`
	SourceName string `ms:"fname"`
	Message    string `ms:"message"`
	Timestamp  int64  `ms:"timestamp"`
}

func (ts *toolset) listBans() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "list_bans", "listing bans",
		"List active ban rules on the virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var bans []banEntry
			if _, err := sess.Exec(ctx, query.NewCommand("banlist"), &bans); err != nil {
				return "", err
			}
			if len(bans) == 0 {
				return "No active bans.", nil
			}
			lines := make([]string, 0, len(bans))
			for _, b := range bans {
				target := b.IP
				if target == "" {
					target = b.Name
				}
				if target == "" {
					target = b.UID
				}
				dur := "permanent"
				if b.Duration > 0 {
					dur = fmt.Sprintf("%ds", b.Duration)
				}
				lines = append(lines, fmt.Sprintf("- #%d %s (%s, by %s): %s", b.ID, target, dur, b.Invoker, b.Reason))
			}
			return section(fmt.Sprintf("Active bans (%d):", len(bans)), lines), nil
		})
}

func (ts *toolset) manageBanRules() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Action string `json:"action" jsonschema:"description=Operation to perform,enum=add,enum=delete,enum=delete_all"`
		BanID  *int   `json:"ban_id,omitempty" jsonschema:"description=Ban rule ID, required for delete"`
		IP     string `json:"ip,omitempty" jsonschema:"description=IP address pattern to ban"`
		Name   string `json:"name,omitempty" jsonschema:"description=Nickname pattern to ban"`
		UID    string `json:"uid,omitempty" jsonschema:"description=Client unique ID to ban"`
		Time   int    `json:"time,omitempty" jsonschema:"description=Ban duration in seconds; 0 is permanent,default=0"`
		Reason string `json:"reason,omitempty" jsonschema:"description=Ban reason,default=Banned by AI"`
	}
	return newTool(ts, "manage_ban_rules", "managing ban rules",
		"Add a ban rule by IP, name or unique ID, delete one by ID, or delete all",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			switch a.Action {
			case "add":
				if a.IP == "" && a.Name == "" && a.UID == "" {
					return "", fmt.Errorf("add requires ip, name or uid")
				}
				reason := a.Reason
				if reason == "" {
					reason = "Banned by AI"
				}
				cmd := query.NewCommand("banadd").
					WithArg("time", a.Time).
					WithArg("banreason", reason)
				if a.IP != "" {
					cmd.WithArg("ip", a.IP)
				}
				if a.Name != "" {
					cmd.WithArg("name", a.Name)
				}
				if a.UID != "" {
					cmd.WithArg("uid", a.UID)
				}
				var created struct {
					ID int `ms:"banid"`
				}
				if _, err := sess.Exec(ctx, cmd, &created); err != nil {
					return "", err
				}
				return fmt.Sprintf("Ban rule #%d created (%s).", created.ID, reason), nil
			case "delete":
				if a.BanID == nil {
					return "", fmt.Errorf("delete requires ban_id")
				}
				if _, err := sess.Exec(ctx, query.NewCommand("bandel").WithArg("banid", *a.BanID), nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Ban rule #%d deleted.", *a.BanID), nil
			case "delete_all":
				if _, err := sess.Exec(ctx, query.NewCommand("bandelall"), nil); err != nil {
					return "", err
				}
				return "All ban rules deleted.", nil
			default:
				return "", fmt.Errorf("unknown action %q (want add, delete or delete_all)", a.Action)
			}
		})
}

func (ts *toolset) listComplaints() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		TargetClientDatabaseID *int `json:"target_client_database_id,omitempty" jsonschema:"description=Only complaints about this client database ID"`
	}
	return newTool(ts, "list_complaints", "listing complaints",
		"List complaints filed on the virtual server, optionally filtered to one target client",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("complainlist")
			if a.TargetClientDatabaseID != nil {
				cmd.WithArg("tcldbid", *a.TargetClientDatabaseID)
			}
			var complaints []complaintEntry
			if _, err := sess.Exec(ctx, cmd, &complaints); err != nil {
				// An empty complaint list is reported as error id 1281.
				var re *query.RemoteError
				if errors.As(err, &re) && re.ID == 1281 {
					return "No complaints found.", nil
				}
				return "", err
			}
			if len(complaints) == 0 {
				return "No complaints found.", nil
			}
			lines := make([]string, 0, len(complaints))
			for _, c := range complaints {
				lines = append(lines, fmt.Sprintf("- about %s (db %d) by %s (db %d): %s", c.TargetName, c.TargetDBID, c.SourceName, c.SourceDBID, c.Message))
			}
			return section(fmt.Sprintf("Complaints (%d):", len(complaints)), lines), nil
		})
}
