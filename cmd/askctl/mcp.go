package main

import (
	"askfolio/internal/app"
	"askfolio/internal/mcp"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as an MCP tool over stdio",
	Long: `Runs a Model Context Protocol server on stdio exposing the
ask_portfolio tool, for use by MCP-capable AI clients.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	logger.Info("askfolio mcp server starting on stdio")
	return mcpserver.ServeStdio(mcp.NewServer(a.Assistant, version))
}
