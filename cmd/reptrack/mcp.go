package main

import (
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	reptrackmcp "github.com/claude/reptrack/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP over stdio, backed by a remote reptrack server",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var mcpRemote string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpRemote, "remote", "", "Base URL of the reptrack server (e.g. http://reptrack.tailnet.ts.net)")
	mcpCmd.MarkFlagRequired("remote")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("reptrack mcp starting", "version", Version, "remote", mcpRemote)

	s := reptrackmcp.New(reptrackmcp.NewHTTPClient(mcpRemote), Version, log)
	return mcpserver.ServeStdio(s)
}
