package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/teamspeak-mcp/mcp"
	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/query"
	"github.com/ggoodman/teamspeak-mcp/stdio"
	"github.com/ggoodman/teamspeak-mcp/tstools"
)

// version is injected at build time.
var version = "dev"

const instructions = `This server administers a TeamSpeak 3 instance over ServerQuery.
Call connect_to_server first to verify connectivity and the authentication level.
Every tool accepts an optional teamspeak_credentials object to target a different
server or login for that single call.`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		host     string
		port     int
		user     string
		password string
		serverID int
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "teamspeak-mcp",
		Short:        "MCP server exposing TeamSpeak ServerQuery administration tools",
		Long:         "teamspeak-mcp speaks the Model Context Protocol over stdio and exposes TeamSpeak 3 ServerQuery administration (channels, clients, groups, bans, files, logs) as tools.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := query.FromEnv()
			if err != nil {
				return err
			}
			// Flags win over environment variables.
			if cmd.Flags().Changed("host") {
				creds.Host = host
			}
			if cmd.Flags().Changed("port") {
				creds.Port = query.FlexInt(port)
			}
			if cmd.Flags().Changed("user") {
				creds.User = user
			}
			if cmd.Flags().Changed("password") {
				creds.Password = password
			}
			if cmd.Flags().Changed("server-id") {
				creds.ServerID = query.FlexInt(serverID)
			}
			return run(creds, logLevel)
		},
	}

	cmd.Flags().StringVar(&host, "host", query.DefaultHost, "ServerQuery host")
	cmd.Flags().IntVar(&port, "port", query.DefaultPort, "ServerQuery port")
	cmd.Flags().StringVar(&user, "user", query.DefaultUser, "ServerQuery login name")
	cmd.Flags().StringVar(&password, "password", "", "ServerQuery login password")
	cmd.Flags().IntVar(&serverID, "server-id", query.DefaultServerID, "virtual server ID")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func run(creds query.Credentials, logLevel string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	// stdout carries the protocol; all logging goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := query.NewManager(creds, query.WithLogger(log))
	defer manager.Shutdown()

	srv := mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "teamspeak-mcp", Version: version}),
		mcpservice.WithPreferredProtocolVersion(mcp.LatestProtocolVersion),
		mcpservice.WithInstructions(instructions),
		mcpservice.WithToolsCapability(tstools.NewToolSet(manager, log)),
	)

	log.Info("starting stdio transport",
		slog.String("version", version),
		slog.String("target", creds.Addr()),
		slog.Int("server_id", int(creds.ServerID)))

	h := stdio.NewHandler(srv, stdio.WithLogger(log))
	return h.Serve(ctx)
}
