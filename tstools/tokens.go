package tstools

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

// Privilege token types.
const (
	tokenTypeServerGroup  = 0
	tokenTypeChannelGroup = 1
)

type tokenEntry struct {
	Token       string `ms:"token"`
	Type        int    `ms:"token_type"`
	ID1         int    `ms:"token_id1"`
	ID2         int    `ms:"token_id2"`
	Created     int64  `ms:"token_created"`
	Description string `ms:"token_description"`
}

func (ts *toolset) listPrivilegeTokens() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "list_privilege_tokens", "listing privilege tokens",
		"List unredeemed privilege keys on the virtual server",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			var tokens []tokenEntry
			if _, err := sess.Exec(ctx, query.NewCommand("tokenlist"), &tokens); err != nil {
				// An empty token list is reported as error id 1281.
				var re *query.RemoteError
				if errors.As(err, &re) && re.ID == 1281 {
					return "No privilege tokens found.", nil
				}
				return "", err
			}
			if len(tokens) == 0 {
				return "No privilege tokens found.", nil
			}
			lines := make([]string, 0, len(tokens))
			for _, t := range tokens {
				kind := "server group"
				if t.Type == tokenTypeChannelGroup {
					kind = "channel group"
				}
				desc := t.Description
				if desc == "" {
					desc = "(no description)"
				}
				lines = append(lines, fmt.Sprintf("- %s: %s %d %s", t.Token, kind, t.ID1, desc))
			}
			return section(fmt.Sprintf("Privilege tokens (%d):", len(tokens)), lines), nil
		})
}

func (ts *toolset) createPrivilegeToken() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		TokenType   int    `json:"token_type" jsonschema:"description=0 for a server group token, 1 for a channel group token"`
		GroupID     int    `json:"group_id" jsonschema:"description=Server group ID (type 0) or channel group ID (type 1)"`
		ChannelID   int    `json:"channel_id,omitempty" jsonschema:"description=Channel ID for channel group tokens,default=0"`
		Description string `json:"description,omitempty" jsonschema:"description=Free-form token description"`
		CustomSet   string `json:"custom_set,omitempty" jsonschema:"description=Custom client properties set on redemption (ident=x value=y pairs)"`
	}
	return newTool(ts, "create_privilege_token", "creating privilege token",
		"Create a privilege key granting a server group or channel group on redemption",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			if a.TokenType != tokenTypeServerGroup && a.TokenType != tokenTypeChannelGroup {
				return "", fmt.Errorf("token_type must be 0 (server group) or 1 (channel group)")
			}
			cmd := query.NewCommand("tokenadd").
				WithArg("tokentype", a.TokenType).
				WithArg("tokenid1", a.GroupID).
				WithArg("tokenid2", a.ChannelID)
			if a.Description != "" {
				cmd.WithArg("tokendescription", a.Description)
			}
			if a.CustomSet != "" {
				cmd.WithArg("tokencustomset", a.CustomSet)
			}
			var created struct {
				Token string `ms:"token"`
			}
			if _, err := sess.Exec(ctx, cmd, &created); err != nil {
				return "", err
			}
			return fmt.Sprintf("Privilege token created: %s", created.Token), nil
		})
}
