// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/caltra/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to log food and read your progress through
a standardized protocol. The server communicates via stdin/stdout and acts as
the configured user (user_id in config, default "local").

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "caltra": {
        "command": "caltra",
        "args": ["mcp"]
      }
    }
  }

  On macOS, the config is at:
    ~/Library/Application Support/Claude/claude_desktop_config.json

AVAILABLE TOOLS:

  add_food            Log a food entry (values, saved food, or date)
  list_food           A day's entries, totals, and goal status
  update_food         Change fields of an entry
  delete_food         Delete an entry by ID
  get_goals           Daily calorie and protein goals
  set_goals           Set daily goals
  search_foods        Search saved foods by name
  list_saved_foods    List all saved foods
  save_food           Save a food with per-100g nutrition
  delete_saved_food   Delete a saved food
  get_history         Daily totals for a month
  estimate_food       AI estimate of calories and protein per 100 g

AVAILABLE RESOURCES:

  caltra://today      Today's log with progress
  caltra://goals      Daily goals
  caltra://foods      Saved foods`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(svc, currentUser())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
