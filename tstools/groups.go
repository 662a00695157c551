package tstools

import (
	"context"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

type serverGroupEntry struct {
	ID   int    `ms:"sgid"`
	Name string `ms:"name"`
	Type int    `ms:"type"`
}

type groupPermEntry struct {
	PermSID string `ms:"permsid"`
	Value   int    `ms:"permvalue"`
	Negated int    `ms:"permnegated"`
	Skip    int    `ms:"permskip"`
}

func (ts *toolset) listServerGroups() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "list_server_groups", "listing server groups",
		"List server groups on the virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var groups []serverGroupEntry
			if _, err := sess.Exec(ctx, query.NewCommand("servergrouplist"), &groups); err != nil {
				return "", err
			}
			if len(groups) == 0 {
				return "No server groups found.", nil
			}
			lines := make([]string, 0, len(groups))
			for _, g := range groups {
				kind := "regular"
				switch g.Type {
				case 0:
					kind = "template"
				case 2:
					kind = "query"
				}
				lines = append(lines, fmt.Sprintf("- %s (id %d, %s)", g.Name, g.ID, kind))
			}
			return section(fmt.Sprintf("Server groups (%d):", len(groups)), lines), nil
		})
}

func (ts *toolset) createServerGroup() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Name string `json:"name" jsonschema:"description=Group name"`
		Type int    `json:"type,omitempty" jsonschema:"description=Group type: 0=template 1=regular 2=query,default=1"`
	}
	return newTool(ts, "create_server_group", "creating server group",
		"Create a new server group",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			groupType := a.Type
			if groupType == 0 {
				groupType = 1
			}
			var created struct {
				ID int `ms:"sgid"`
			}
			cmd := query.NewCommand("servergroupadd").
				WithArg("name", a.Name).
				WithArg("type", groupType)
			if _, err := sess.Exec(ctx, cmd, &created); err != nil {
				return "", err
			}
			return fmt.Sprintf("Server group %q created (id %d).", a.Name, created.ID), nil
		})
}

func (ts *toolset) assignClientToGroup() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientDatabaseID int    `json:"client_database_id" jsonschema:"description=Client database ID (cldbid)"`
		Action           string `json:"action" jsonschema:"description=Operation to perform,enum=add,enum=remove"`
		GroupID          int    `json:"group_id" jsonschema:"description=Server group ID"`
	}
	return newTool(ts, "assign_client_to_group", "assigning client to group",
		"Add a client to a server group or remove them from it, by database ID",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			switch a.Action {
			case "add":
				cmd := query.NewCommand("servergroupaddclient").
					WithArg("sgid", a.GroupID).
					WithArg("cldbid", a.ClientDatabaseID)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Client db %d added to group %d.", a.ClientDatabaseID, a.GroupID), nil
			case "remove":
				cmd := query.NewCommand("servergroupdelclient").
					WithArg("sgid", a.GroupID).
					WithArg("cldbid", a.ClientDatabaseID)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Client db %d removed from group %d.", a.ClientDatabaseID, a.GroupID), nil
			default:
				return "", fmt.Errorf("unknown action %q (want add or remove)", a.Action)
			}
		})
}

func (ts *toolset) manageServerGroupPermissions() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		GroupID    int    `json:"group_id" jsonschema:"description=Server group to manage"`
		Action     string `json:"action" jsonschema:"description=Operation to perform,enum=add,enum=remove,enum=list"`
		Permission string `json:"permission,omitempty" jsonschema:"description=Permission name (permsid), required for add/remove"`
		Value      *int   `json:"value,omitempty" jsonschema:"description=Permission value, required for add"`
		Skip       bool   `json:"skip,omitempty" jsonschema:"description=Set the skip flag,default=false"`
		Negate     bool   `json:"negate,omitempty" jsonschema:"description=Set the negate flag,default=false"`
	}
	return newTool(ts, "manage_server_group_permissions", "managing server group permissions",
		"Add, remove or list permissions on a server group",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			switch a.Action {
			case "list":
				var perms []groupPermEntry
				if _, err := sess.Exec(ctx, query.NewCommand("servergrouppermlist").WithArg("sgid", a.GroupID).WithOption("-permsid"), &perms); err != nil {
					return "", err
				}
				if len(perms) == 0 {
					return fmt.Sprintf("Group %d has no explicit permissions.", a.GroupID), nil
				}
				lines := make([]string, 0, len(perms))
				for _, p := range perms {
					suffix := ""
					if p.Negated == 1 {
						suffix += " negated"
					}
					if p.Skip == 1 {
						suffix += " skip"
					}
					lines = append(lines, fmt.Sprintf("- %s = %d%s", p.PermSID, p.Value, suffix))
				}
				return section(fmt.Sprintf("Group %d permissions:", a.GroupID), lines), nil
			case "add":
				if a.Permission == "" || a.Value == nil {
					return "", fmt.Errorf("add requires permission and value")
				}
				cmd := query.NewCommand("servergroupaddperm").
					WithArg("sgid", a.GroupID).
					WithArg("permsid", a.Permission).
					WithArg("permvalue", *a.Value).
					WithArg("permnegated", boolFlag(a.Negate)).
					WithArg("permskip", boolFlag(a.Skip))
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s=%d set on group %d.", a.Permission, *a.Value, a.GroupID), nil
			case "remove":
				if a.Permission == "" {
					return "", fmt.Errorf("remove requires permission")
				}
				cmd := query.NewCommand("servergroupdelperm").
					WithArg("sgid", a.GroupID).
					WithArg("permsid", a.Permission)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s removed from group %d.", a.Permission, a.GroupID), nil
			default:
				return "", fmt.Errorf("unknown action %q (want add, remove or list)", a.Action)
			}
		})
}

func (ts *toolset) manageUserPermissions() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID   int    `json:"client_id" jsonschema:"description=Connected client ID; the database ID is resolved automatically"`
		Action     string `json:"action" jsonschema:"description=Operation to perform,enum=add_group,enum=remove_group,enum=list_groups,enum=add_permission,enum=remove_permission,enum=list_permissions"`
		GroupID    *int   `json:"group_id,omitempty" jsonschema:"description=Server group ID, required for add_group/remove_group"`
		Permission string `json:"permission,omitempty" jsonschema:"description=Permission name (permsid), required for add_permission/remove_permission"`
		Value      *int   `json:"value,omitempty" jsonschema:"description=Permission value, required for add_permission"`
		Skip       bool   `json:"skip,omitempty" jsonschema:"description=Set the skip flag,default=false"`
		Negate     bool   `json:"negate,omitempty" jsonschema:"description=Set the negate flag,default=false"`
	}
	return newTool(ts, "manage_user_permissions", "managing user permissions",
		"Manage a connected client's server groups and client permissions",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			// Group and permission commands key on the database ID, so look
			// it up from the live connection first.
			var info clientInfoEntry
			if _, err := sess.Exec(ctx, query.NewCommand("clientinfo").WithArg("clid", a.ClientID), &info); err != nil {
				return "", fmt.Errorf("resolve client %d: %w", a.ClientID, err)
			}
			cldbid := info.DatabaseID

			switch a.Action {
			case "list_groups":
				var groups []serverGroupEntry
				if _, err := sess.Exec(ctx, query.NewCommand("servergroupsbyclientid").WithArg("cldbid", cldbid), &groups); err != nil {
					return "", err
				}
				if len(groups) == 0 {
					return fmt.Sprintf("Client %s (db %d) is in no server groups.", info.Nickname, cldbid), nil
				}
				lines := make([]string, 0, len(groups))
				for _, g := range groups {
					lines = append(lines, fmt.Sprintf("- %s (id %d)", g.Name, g.ID))
				}
				return section(fmt.Sprintf("Groups of %s (db %d):", info.Nickname, cldbid), lines), nil
			case "add_group":
				if a.GroupID == nil {
					return "", fmt.Errorf("add_group requires group_id")
				}
				cmd := query.NewCommand("servergroupaddclient").
					WithArg("sgid", *a.GroupID).
					WithArg("cldbid", cldbid)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Client %s (db %d) added to group %d.", info.Nickname, cldbid, *a.GroupID), nil
			case "remove_group":
				if a.GroupID == nil {
					return "", fmt.Errorf("remove_group requires group_id")
				}
				cmd := query.NewCommand("servergroupdelclient").
					WithArg("sgid", *a.GroupID).
					WithArg("cldbid", cldbid)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Client %s (db %d) removed from group %d.", info.Nickname, cldbid, *a.GroupID), nil
			case "list_permissions":
				var perms []groupPermEntry
				if _, err := sess.Exec(ctx, query.NewCommand("clientpermlist").WithArg("cldbid", cldbid).WithOption("-permsid"), &perms); err != nil {
					return "", err
				}
				if len(perms) == 0 {
					return fmt.Sprintf("Client %s (db %d) has no explicit permissions.", info.Nickname, cldbid), nil
				}
				lines := make([]string, 0, len(perms))
				for _, p := range perms {
					lines = append(lines, fmt.Sprintf("- %s = %d", p.PermSID, p.Value))
				}
				return section(fmt.Sprintf("Permissions of %s (db %d):", info.Nickname, cldbid), lines), nil
			case "add_permission":
				if a.Permission == "" || a.Value == nil {
					return "", fmt.Errorf("add_permission requires permission and value")
				}
				cmd := query.NewCommand("clientaddperm").
					WithArg("cldbid", cldbid).
					WithArg("permsid", a.Permission).
					WithArg("permvalue", *a.Value).
					WithArg("permskip", boolFlag(a.Skip))
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s=%d set on client %s (db %d).", a.Permission, *a.Value, info.Nickname, cldbid), nil
			case "remove_permission":
				if a.Permission == "" {
					return "", fmt.Errorf("remove_permission requires permission")
				}
				cmd := query.NewCommand("clientdelperm").
					WithArg("cldbid", cldbid).
					WithArg("permsid", a.Permission)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s removed from client %s (db %d).", a.Permission, info.Nickname, cldbid), nil
			default:
				return "", fmt.Errorf("unknown action %q", a.Action)
			}
		})
}
