package tstools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

func (ts *toolset) createServerSnapshot() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
	}
	return newTool(ts, "create_server_snapshot", "creating server snapshot",
		"Create a snapshot of the virtual server configuration for backup or migration",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			raw, err := sess.Exec(ctx, query.NewCommand("serversnapshotcreate"), nil)
			if err != nil {
				return "", err
			}
			snapshot := strings.Join(raw, "\n")
			if snapshot == "" {
				return "", fmt.Errorf("server returned an empty snapshot")
			}
			return "Server snapshot created. Pass the data below to deploy_server_snapshot to restore it:\n" + snapshot, nil
		})
}

func (ts *toolset) deployServerSnapshot() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		SnapshotData string `json:"snapshot_data" jsonschema:"description=Snapshot blob previously produced by create_server_snapshot"`
	}
	return newTool(ts, "deploy_server_snapshot", "deploying server snapshot",
		"Restore a virtual server from a snapshot, replacing its current configuration",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			if strings.TrimSpace(a.SnapshotData) == "" {
				return "", fmt.Errorf("snapshot_data is empty")
			}
			cmd := query.NewCommand("serversnapshotdeploy").
				WithArg("virtualserver_snapshot", a.SnapshotData)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return "Server snapshot deployed.", nil
		})
}
