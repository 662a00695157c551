package tstools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
)

// Log levels accepted by logadd.
var logLevels = map[string]int{
	"error":   1,
	"warning": 2,
	"debug":   3,
	"info":    4,
}

func (ts *toolset) viewServerLogs() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Lines         int     `json:"lines,omitempty" jsonschema:"description=Lines to fetch (max 100 per page),default=50"`
		Reverse       *bool   `json:"reverse,omitempty" jsonschema:"description=Newest entries first,default=true"`
		InstanceLog   bool    `json:"instance_log,omitempty" jsonschema:"description=Read the instance log instead of the virtual server log,default=false"`
		BeginPos      *uint64 `json:"begin_pos,omitempty" jsonschema:"description=Resume from a prior last_pos cursor"`
		LogLevel      string  `json:"log_level,omitempty" jsonschema:"description=Only lines of this level,enum=error,enum=warning,enum=debug,enum=info"`
		TimestampFrom string  `json:"timestamp_from,omitempty" jsonschema:"description=Only lines at or after this timestamp (YYYY-MM-DD hh:mm:ss)"`
		TimestampTo   string  `json:"timestamp_to,omitempty" jsonschema:"description=Only lines at or before this timestamp (YYYY-MM-DD hh:mm:ss)"`
		CompleteMode  bool    `json:"complete_mode,omitempty" jsonschema:"description=Walk the whole log with the cursor instead of one page,default=false"`
		MaxIterations int     `json:"max_iterations,omitempty" jsonschema:"description=Cap on logview calls in complete mode,default=1000"`
	}
	return newTool(ts, "view_server_logs", "viewing server logs",
		"Read the virtual server log, one page or a full cursor walk, with optional level and timestamp filters",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			lines := a.Lines
			if lines <= 0 {
				lines = 50
			}
			reverse := true
			if a.Reverse != nil {
				reverse = *a.Reverse
			}
			reader := query.NewLogReader(sess, ts.log)
			q := query.LogQuery{
				Lines:         lines,
				Reverse:       reverse,
				Instance:      a.InstanceLog,
				BeginPos:      a.BeginPos,
				MaxIterations: a.MaxIterations,
			}
			if q.MaxIterations <= 0 {
				q.MaxIterations = 1000
			}

			var entries []string
			var footer []string
			if a.CompleteMode {
				res, err := reader.FetchAll(ctx, q)
				if err != nil {
					return "", err
				}
				entries = res.Lines
				footer = append(footer, fmt.Sprintf("(%d lines, %d iterations, final position %d)", len(res.Lines), res.Iterations, res.FinalPos))
				if res.Truncated {
					footer = append(footer, "(walk stopped at the iteration cap; raise max_iterations to continue)")
				}
			} else {
				page, err := reader.FetchPage(ctx, q)
				if err != nil {
					return "", err
				}
				entries = page.Lines
				if page.LastPos != nil {
					footer = append(footer, fmt.Sprintf("(continue with begin_pos=%d)", *page.LastPos))
				}
			}

			entries = filterLogLines(entries, a.LogLevel, a.TimestampFrom, a.TimestampTo)
			if len(entries) == 0 {
				return "No matching log entries.", nil
			}
			return section(fmt.Sprintf("Server log (%d entries):", len(entries)), append(entries, footer...)), nil
		})
}

func (ts *toolset) getInstanceLogs() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		Lines    int     `json:"lines,omitempty" jsonschema:"description=Lines to fetch (max 100),default=50"`
		Reverse  *bool   `json:"reverse,omitempty" jsonschema:"description=Newest entries first,default=true"`
		BeginPos *uint64 `json:"begin_pos,omitempty" jsonschema:"description=Resume from a prior last_pos cursor"`
	}
	return newTool(ts, "get_instance_logs", "viewing instance logs",
		"Read one page of the server instance log",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			lines := a.Lines
			if lines <= 0 {
				lines = 50
			}
			reverse := true
			if a.Reverse != nil {
				reverse = *a.Reverse
			}
			reader := query.NewLogReader(sess, ts.log)
			page, err := reader.FetchPage(ctx, query.LogQuery{
				Lines:    lines,
				Reverse:  reverse,
				Instance: true,
				BeginPos: a.BeginPos,
			})
			if err != nil {
				return "", err
			}
			if len(page.Lines) == 0 {
				return "No instance log entries.", nil
			}
			entries := page.Lines
			if page.LastPos != nil {
				entries = append(entries, fmt.Sprintf("(continue with begin_pos=%d)", *page.LastPos))
			}
			return section(fmt.Sprintf("Instance log (%d entries):", len(page.Lines)), entries), nil
		})
}

func (ts *toolset) addLogEntry() mcpservice.StaticTool {
	type args struct {
		CredentialArgs
		LogLevel string `json:"log_level" jsonschema:"description=Severity of the entry,enum=error,enum=warning,enum=debug,enum=info"`
		Message  string `json:"message" jsonschema:"description=Text to write to the server log"`
	}
	return newTool(ts, "add_log_entry", "adding log entry",
		"Write a custom entry to the virtual server log",
		func(ctx context.Context, sess *query.Session, a args) (string, error) {
			level, ok := logLevels[strings.ToLower(a.LogLevel)]
			if !ok {
				return "", fmt.Errorf("unknown log_level %q (want error, warning, debug or info)", a.LogLevel)
			}
			cmd := query.NewCommand("logadd").
				WithArg("loglevel", level).
				WithArg("logmsg", a.Message)
			if _, err := sess.Exec(ctx, cmd, nil); err != nil {
				return "", err
			}
			return fmt.Sprintf("Log entry written at level %s.", strings.ToLower(a.LogLevel)), nil
		})
}

// filterLogLines applies the optional level and timestamp filters. Log lines
// start with "YYYY-MM-DD hh:mm:ss.ffffff|LEVEL |...", so plain string
// comparison works for both.
func filterLogLines(lines []string, level, from, to string) []string {
	if level == "" && from == "" && to == "" {
		return lines
	}
	levelTag := ""
	if level != "" {
		levelTag = "|" + strings.ToUpper(level)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if levelTag != "" && !strings.Contains(strings.ToUpper(l), levelTag) {
			continue
		}
		if from != "" || to != "" {
			ts, _, found := strings.Cut(l, "|")
			if found {
				ts = strings.TrimSpace(ts)
				if from != "" && ts < from {
					continue
				}
				if to != "" && ts > to {
					continue
				}
			}
		}
		out = append(out, l)
	}
	return out
}
