package tstools

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

type fileEntry struct {
	Name     string `ms:"name"`
	Size     uint64 `ms:"size"`
	Type     int    `ms:"type"`
	Datetime int64  `ms:"datetime"`
}

type transferEntry struct {
	ID       int    `ms:"serverftfid"`
	ClientID int    `ms:"clid"`
	Path     string `ms:"path"`
	Name     string `ms:"name"`
	Size     uint64 `ms:"size"`
	SizeDone uint64 `ms:"sizedone"`
}

func (ts *toolset) listFiles() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID       int    `json:"channel_id" jsonschema:"description=Channel whose file area to list"`
		Path            string `json:"path,omitempty" jsonschema:"description=Directory path inside the channel,default=/"`
		ChannelPassword string `json:"channel_password,omitempty" jsonschema:"description=Channel password if required"`
	}
	return newTool(ts, "list_files", "listing files",
		"List files in a channel's file area",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			path := a.Path
			if path == "" {
				path = "/"
			}
			cmd := query.NewCommand("ftgetfilelist").
				WithArg("cid", a.ChannelID).
				WithArg("cpw", a.ChannelPassword).
				WithArg("path", path)
			var files []fileEntry
			if _, err := sess.Exec(ctx, cmd, &files); err != nil {
				// error id 1281 means the directory is empty.
				var re *query.RemoteError
				if errors.As(err, &re) && re.ID == 1281 {
					return fmt.Sprintf("No files in channel %d at %s.", a.ChannelID, path), nil
				}
				return "", err
			}
			if len(files) == 0 {
				return fmt.Sprintf("No files in channel %d at %s.", a.ChannelID, path), nil
			}
			lines := make([]string, 0, len(files))
			for _, f := range files {
				if f.Type == 0 {
					lines = append(lines, fmt.Sprintf("- %s/ (directory)", f.Name))
				} else {
					lines = append(lines, fmt.Sprintf("- %s (%d bytes)", f.Name, f.Size))
				}
			}
			return section(fmt.Sprintf("Files in channel %d at %s:", a.ChannelID, path), lines), nil
		})
}

func (ts *toolset) getFileInfo() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		ChannelID       int    `json:"channel_id" jsonschema:"description=Channel holding the file"`
		FilePath        string `json:"file_path" jsonschema:"description=Full path of the file inside the channel"`
		ChannelPassword string `json:"channel_password,omitempty" jsonschema:"description=Channel password if required"`
	}
	return newTool(ts, "get_file_info", "retrieving file info",
		"Show size and modification time of a file in a channel's file area",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			cmd := query.NewCommand("ftgetfileinfo").
				WithArg("cid", a.ChannelID).
				WithArg("cpw", a.ChannelPassword).
				WithArg("name", a.FilePath)
			var info fileEntry
			if _, err := sess.Exec(ctx, cmd, &info); err != nil {
				return "", err
			}
			return section(fmt.Sprintf("File %s in channel %d:", a.FilePath, a.ChannelID), []string{
				fmt.Sprintf("Size: %d bytes", info.Size),
				fmt.Sprintf("Modified: %d", info.Datetime),
			}), nil
		})
}

func (ts *toolset) manageFilePermissions() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Action        string `json:"action" jsonschema:"description=Operation to perform,enum=list_transfers,enum=stop_transfer"`
		TransferID    *int   `json:"transfer_id,omitempty" jsonschema:"description=Server file transfer ID, required for stop_transfer"`
		DeletePartial bool   `json:"delete_partial,omitempty" jsonschema:"description=Delete the partial file when stopping a transfer,default=false"`
	}
	return newTool(ts, "manage_file_permissions", "managing file transfers",
		"List running file transfers or stop one",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			switch a.Action {
			case "list_transfers":
				var transfers []transferEntry
				if _, err := sess.Exec(ctx, query.NewCommand("ftlist"), &transfers); err != nil {
					var re *query.RemoteError
					if errors.As(err, &re) && re.ID == 1281 {
						return "No file transfers running.", nil
					}
					return "", err
				}
				if len(transfers) == 0 {
					return "No file transfers running.", nil
				}
				lines := make([]string, 0, len(transfers))
				for _, t := range transfers {
					lines = append(lines, fmt.Sprintf("- #%d client %d: %s%s (%d/%d bytes)", t.ID, t.ClientID, t.Path, t.Name, t.SizeDone, t.Size))
				}
				return section(fmt.Sprintf("File transfers (%d):", len(transfers)), lines), nil
			case "stop_transfer":
				if a.TransferID == nil {
					return "", fmt.Errorf("stop_transfer requires transfer_id")
				}
				cmd := query.NewCommand("ftstop").
					WithArg("serverftfid", *a.TransferID).
					WithArg("delete", boolFlag(a.DeletePartial))
				if _, err := sess.Exec(ctx, cmd, nil); err != nil {
					return "", err
				}
				return fmt.Sprintf("File transfer #%d stopped.", *a.TransferID), nil
			default:
				return "", fmt.Errorf("unknown action %q (want list_transfers or stop_transfer)", a.Action)
			}
		})
}
