package tstools

import (
	"context"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

// Text message target modes for sendtextmessage.
const (
	targetModeClient  = 1
	targetModeChannel = 2
)

func (ts *toolset) sendChannelMessage() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Message   string `json:"message" jsonschema:"description=Message text to send"`
		ChannelID *int   `json:"channel_id,omitempty" jsonschema:"description=Target channel ID; defaults to the session's current channel"`
	}
	return newTool(ts, "send_channel_message", "sending channel message",
		"Send a text message to a channel",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			target := 0
			if a.ChannelID != nil {
				target = *a.ChannelID
			} else {
				var who whoamiRecord
				if _, err := sess.Exec(ctx, query.NewCommand("whoami"), &who); err == nil {
					target = who.ChannelID
				}
			}
			cmd := query.NewCommand("sendtextmessage").
				WithArg("targetmode", targetModeChannel).
				WithArg("target", target).
				WithArg("msg", a.Message)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Message sent to channel %d.", target), nil
		})
}

func (ts *toolset) sendPrivateMessage() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID int    `json:"client_id" jsonschema:"description=Target client ID"`
		Message  string `json:"message" jsonschema:"description=Message text to send"`
	}
	return newTool(ts, "send_private_message", "sending private message",
		"Send a private text message to a client",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("sendtextmessage").
				WithArg("targetmode", targetModeClient).
				WithArg("target", a.ClientID).
				WithArg("msg", a.Message)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Private message sent to client %d.", a.ClientID), nil
		})
}

func (ts *toolset) pokeClient() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ClientID int    `json:"client_id" jsonschema:"description=Target client ID"`
		Message  string `json:"message" jsonschema:"description=Poke message text"`
	}
	return newTool(ts, "poke_client", "poking client",
		"Poke a client with a short attention message",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("clientpoke").
				WithArg("clid", a.ClientID).
				WithArg("msg", a.Message)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Client %d poked.", a.ClientID), nil
		})
}
