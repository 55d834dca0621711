// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/bodycomp/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to read your progress reports and history
through a standardized protocol. The server communicates via stdin/stdout, so
logs go to stderr only.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "bodycomp": {
        "command": "bodycomp",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_progress     Latest progress report (snapshot or recomputed)
  list_history     Recent daily records
  get_rolling      Rolling-mean series of one field
  ingest_payload   Ingest a Health Auto Export document

AVAILABLE RESOURCES:

  bodycomp://report/latest    Newest progress report
  bodycomp://history/recent   Last 14 daily records`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(pipe)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
