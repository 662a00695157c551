package tstools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

// Talk power presets accepted by set_channel_talk_power.
const (
	talkPowerSilent    = 999
	talkPowerModerated = 50
	talkPowerNormal    = 0
)

type channelEntry struct {
	ID           int    `ms:"cid"`
	ParentID     int    `ms:"pid"`
	Name         string `ms:"channel_name"`
	Order        int    `ms:"channel_order"`
	TotalClients int    `ms:"total_clients"`
}

type channelInfoEntry struct {
	Name           string `ms:"channel_name"`
	Topic          string `ms:"channel_topic"`
	Description    string `ms:"channel_description"`
	ParentID       int    `ms:"pid"`
	MaxClients     int    `ms:"channel_maxclients"`
	NeededTalkPwr  int    `ms:"channel_needed_talk_power"`
	CodecQuality   int    `ms:"channel_codec_quality"`
	FlagPermanent  int    `ms:"channel_flag_permanent"`
	FlagDefault    int    `ms:"channel_flag_default"`
	FlagPassworded int    `ms:"channel_flag_password"`
	Order          int    `ms:"channel_order"`
}

type channelPermEntry struct {
	PermSID string `ms:"permsid"`
	PermID  int    `ms:"permid"`
	Value   int    `ms:"permvalue"`
	Negated int    `ms:"permnegated"`
	Skip    int    `ms:"permskip"`
}

func (ts *toolset) listChannels() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "list_channels", "listing channels",
		"List channels on the virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var channels []channelEntry
			if _, err := sess.Exec(ctx, query.NewCommand("channellist"), &channels); err != nil {
				return "", err
			}
			if len(channels) == 0 {
				return "No channels found.", nil
			}
			lines := make([]string, 0, len(channels))
			for _, c := range channels {
				lines = append(lines, fmt.Sprintf("- %s (id %d, parent %d, %d clients)", c.Name, c.ID, c.ParentID, c.TotalClients))
			}
			return section(fmt.Sprintf("Channels (%d):", len(channels)), lines), nil
		})
}

func (ts *toolset) channelInfo() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID int `json:"channel_id" jsonschema:"description=Channel ID to inspect"`
	}
	return newTool(ts, "channel_info", "retrieving channel info",
		"Show detailed information about a channel",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var info channelInfoEntry
			if _, err := sess.Exec(ctx, query.NewCommand("channelinfo").WithArg("cid", a.ChannelID), &info); err != nil {
				return "", err
			}
			kind := "temporary"
			if info.FlagPermanent == 1 {
				kind = "permanent"
			}
			lines := []string{
				fmt.Sprintf("Name: %s", info.Name),
				fmt.Sprintf("Type: %s", kind),
				fmt.Sprintf("Parent: %d", info.ParentID),
				fmt.Sprintf("Max clients: %d", info.MaxClients),
				fmt.Sprintf("Needed talk power: %d", info.NeededTalkPwr),
				fmt.Sprintf("Codec quality: %d", info.CodecQuality),
				fmt.Sprintf("Password protected: %t", info.FlagPassworded == 1),
			}
			if info.Topic != "" {
				lines = append(lines, fmt.Sprintf("Topic: %s", info.Topic))
			}
			if info.Description != "" {
				lines = append(lines, fmt.Sprintf("Description: %s", info.Description))
			}
			return section(fmt.Sprintf("Channel %d:", a.ChannelID), lines), nil
		})
}

func (ts *toolset) findChannels() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Pattern string `json:"pattern" jsonschema:"description=Channel name pattern to search for"`
	}
	return newTool(ts, "find_channels", "finding channels",
		"Find channels by name pattern",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var hits []channelEntry
			if _, err := sess.Exec(ctx, query.NewCommand("channelfind").WithArg("pattern", a.Pattern), &hits); err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return fmt.Sprintf("No channels match %q.", a.Pattern), nil
			}
			lines := make([]string, 0, len(hits))
			for _, h := range hits {
				lines = append(lines, fmt.Sprintf("- %s (id %d)", h.Name, h.ID))
			}
			return section(fmt.Sprintf("Channels matching %q:", a.Pattern), lines), nil
		})
}

func (ts *toolset) createChannel() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Name      string `json:"name" jsonschema:"description=Channel name"`
		ParentID  int    `json:"parent_id,omitempty" jsonschema:"description=Parent channel ID; 0 for top level,default=0"`
		Permanent bool   `json:"permanent,omitempty" jsonschema:"description=Create a permanent channel instead of a temporary one,default=false"`
	}
	return newTool(ts, "create_channel", "creating channel",
		"Create a new channel, optionally permanent and under a parent",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("channelcreate").
				WithArg("channel_name", a.Name).
				WithArg("channel_flag_permanent", boolFlag(a.Permanent))
			if a.ParentID != 0 {
				cmd.WithArg("cpid", a.ParentID)
			}
			var created struct {
				ID int `ms:"cid"`
			}
			if _, err := sess.Exec(ctx, cmd, &created); err != nil {
				return "", err
			}
			kind := "temporary"
			if a.Permanent {
				kind = "permanent"
			}
			return fmt.Sprintf("Channel %q created (%s, id %d).", a.Name, kind, created.ID), nil
		})
}

func (ts *toolset) deleteChannel() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID int  `json:"channel_id" jsonschema:"description=Channel to delete"`
		Force     bool `json:"force,omitempty" jsonschema:"description=Delete even when clients are inside,default=false"`
	}
	return newTool(ts, "delete_channel", "deleting channel",
		"Delete a channel, optionally forcing out its clients",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("channeldelete").
				WithArg("cid", a.ChannelID).
				WithArg("force", boolFlag(a.Force))
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Channel %d deleted.", a.ChannelID), nil
		})
}

func (ts *toolset) updateChannel() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID    int     `json:"channel_id" jsonschema:"description=Channel to edit"`
		Name         *string `json:"name,omitempty" jsonschema:"description=New channel name"`
		Description  *string `json:"description,omitempty" jsonschema:"description=New channel description"`
		Password     *string `json:"password,omitempty" jsonschema:"description=Channel password (empty string clears it)"`
		MaxClients   *int    `json:"max_clients,omitempty" jsonschema:"description=Maximum clients allowed"`
		TalkPower    *int    `json:"talk_power,omitempty" jsonschema:"description=Talk power required to speak"`
		CodecQuality *int    `json:"codec_quality,omitempty" jsonschema:"description=Voice codec quality 0-10"`
		Permanent    *bool   `json:"permanent,omitempty" jsonschema:"description=Switch between permanent and temporary"`
	}
	return newTool(ts, "update_channel", "updating channel",
		"Edit channel properties such as name, description, password, slots, talk power and codec quality",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("channeledit").WithArg("cid", a.ChannelID)
			var changed []string
			if a.Name != nil {
				cmd.WithArg("channel_name", *a.Name)
				changed = append(changed, "name")
			}
			if a.Description != nil {
				cmd.WithArg("channel_description", *a.Description)
				changed = append(changed, "description")
			}
			if a.Password != nil {
				cmd.WithArg("channel_password", *a.Password)
				changed = append(changed, "password")
			}
			if a.MaxClients != nil {
				cmd.WithArg("channel_maxclients", *a.MaxClients)
				changed = append(changed, "max_clients")
			}
			if a.TalkPower != nil {
				cmd.WithArg("channel_needed_talk_power", *a.TalkPower)
				changed = append(changed, "talk_power")
			}
			if a.CodecQuality != nil {
				cmd.WithArg("channel_codec_quality", *a.CodecQuality)
				changed = append(changed, "codec_quality")
			}
			if a.Permanent != nil {
				cmd.WithArg("channel_flag_permanent", boolFlag(*a.Permanent))
				changed = append(changed, "permanent")
			}
			if len(changed) == 0 {
				return "No properties provided; nothing to update.", nil
			}
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Channel %d updated: %s.", a.ChannelID, strings.Join(changed, ", ")), nil
		})
}

func (ts *toolset) setChannelTalkPower() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID int    `json:"channel_id" jsonschema:"description=Channel to configure"`
		TalkPower *int   `json:"talk_power,omitempty" jsonschema:"description=Explicit talk power requirement"`
		Preset    string `json:"preset,omitempty" jsonschema:"description=Preset level,enum=silent,enum=moderated,enum=normal"`
	}
	return newTool(ts, "set_channel_talk_power", "setting channel talk power",
		"Set the talk power a channel requires, directly or via the silent/moderated/normal presets",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var power int
			switch {
			case a.TalkPower != nil:
				power = *a.TalkPower
			case a.Preset == "silent":
				power = talkPowerSilent
			case a.Preset == "moderated":
				power = talkPowerModerated
			case a.Preset == "normal":
				power = talkPowerNormal
			case a.Preset != "":
				return "", fmt.Errorf("unknown preset %q (want silent, moderated or normal)", a.Preset)
			default:
				return "", fmt.Errorf("provide talk_power or preset")
			}
			cmd := query.NewCommand("channeledit").
				WithArg("cid", a.ChannelID).
				WithArg("channel_needed_talk_power", power)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Channel %d now requires talk power %d.", a.ChannelID, power), nil
		})
}

func (ts *toolset) manageChannelPermissions() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID  int    `json:"channel_id" jsonschema:"description=Channel to manage"`
		Action     string `json:"action" jsonschema:"description=Operation to perform,enum=add,enum=remove,enum=list"`
		Permission string `json:"permission,omitempty" jsonschema:"description=Permission name (permsid), required for add/remove"`
		Value      *int   `json:"value,omitempty" jsonschema:"description=Permission value, required for add"`
	}
	return newTool(ts, "manage_channel_permissions", "managing channel permissions",
		"Add, remove or list permissions on a channel",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			switch a.Action {
			case "list":
				var perms []channelPermEntry
				if _, err := sess.Exec(ctx, query.NewCommand("channelpermlist").WithArg("cid", a.ChannelID).WithOption("-permsid"), &perms); err != nil {
					return "", err
				}
				if len(perms) == 0 {
					return fmt.Sprintf("Channel %d has no explicit permissions.", a.ChannelID), nil
				}
				lines := make([]string, 0, len(perms))
				for _, p := range perms {
					lines = append(lines, fmt.Sprintf("- %s = %d", p.PermSID, p.Value))
				}
				return section(fmt.Sprintf("Channel %d permissions:", a.ChannelID), lines), nil
			case "add":
				if a.Permission == "" || a.Value == nil {
					return "", fmt.Errorf("add requires permission and value")
				}
				cmd := query.NewCommand("channeladdperm").
					WithArg("cid", a.ChannelID).
					WithArg("permsid", a.Permission).
					WithArg("permvalue", *a.Value)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s=%d set on channel %d.", a.Permission, *a.Value, a.ChannelID), nil
			case "remove":
				if a.Permission == "" {
					return "", fmt.Errorf("remove requires permission")
				}
				cmd := query.NewCommand("channeldelperm").
					WithArg("cid", a.ChannelID).
					WithArg("permsid", a.Permission)
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("Permission %s removed from channel %d.", a.Permission, a.ChannelID), nil
			default:
				return "", fmt.Errorf("unknown action %q (want add, remove or list)", a.Action)
			}
		})
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
