package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/repograde/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Expose analyze_repository and resolve_repository as MCP tools over stdio,
for use from editors and agents. Logs go to stderr; stdout carries the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cleanup, err := buildAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return mcp.Serve(ctx, mcp.NewHandler(a, logger.Logrus()), Version)
	},
}
