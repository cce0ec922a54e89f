// ABOUTME: CLI commands for exporting and importing caltra data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export caltra data",
	Long: `Export your food log, saved foods, and goals in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export grouped by day (human-readable)
  markdown   One table per day (for documentation/sharing)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include entries since this date (markdown only, YYYY-MM-DD)

EXAMPLES:

  caltra export json                         # Export all data as JSON
  caltra export json -o backup.json          # Save to file
  caltra export yaml                         # Export as YAML
  caltra export markdown --since 2024-01-01  # Entries from 2024 onward`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user := currentUser()
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = storage.ExportJSON(ctx, repo, user)
		case "yaml":
			data, err = storage.ExportYAML(ctx, repo, user)
		case "markdown", "md":
			var since *time.Time
			if exportSince != "" {
				t, err := aggregate.ParseDate(exportSince)
				if err != nil {
					return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
				}
				since = &t
			}
			md, err := storage.ExportMarkdown(ctx, repo, user, since)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import caltra data from JSON",
	Long: `Import caltra data from a JSON backup file.

Entries and saved foods are imported for the current user. Records that
already exist are skipped, so importing the same file twice is safe.

EXAMPLES:

  caltra import backup.json               # Import from file`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		summary, err := storage.ImportJSON(cmd.Context(), repo, data, currentUser())
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", filename)
		fmt.Printf("  %d entries, %d saved foods", summary.FoodLogs, summary.FoodItems)
		if summary.Goals {
			fmt.Print(", goals")
		}
		fmt.Println()
		if skipped := summary.SkippedLogs + summary.SkippedItems; skipped > 0 {
			fmt.Println(faint.Sprintf("  %d already present, skipped", skipped))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include entries since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
