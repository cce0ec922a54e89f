// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Moves one user's log, saved foods, and goals from the open store to another.
package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/config"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateTo     string
	migrateDSN    string
	migratePath   string
	migrateToUser string
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data to another storage backend",
	Long: `Copy your data from the current storage backend to another one.

The source is the store caltra would normally use (or --db). The destination
is chosen with --to:

  postgres   PostgreSQL at --dsn (default: database_url / DATABASE_URL)
  sqlite     SQLite file at --path (default: ~/.local/share/caltra/caltra.db)

Records already present at the destination are skipped, so a migration can
be re-run safely. Run with --dry-run first to see what would be copied.

USAGE:

  caltra migrate --to postgres --dsn postgres://localhost/caltra --dry-run
  caltra migrate --to postgres --dsn postgres://localhost/caltra
  caltra --db old.db migrate --to sqlite
  caltra migrate --to postgres --to-user 3f0c...   # Hand data to a web account

AFTER MIGRATION:

  Point caltra at the new store:
    caltra config set backend postgres`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		srcUser := currentUser()
		dstUser := migrateToUser
		if dstUser == "" {
			dstUser = srcUser
		}

		if migrateDryRun {
			data, err := storage.GetAllData(ctx, repo, srcUser)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Println()
			fmt.Printf("Would copy for %s → %s (%s):\n", srcUser, dstUser, migrateTo)
			fmt.Printf("  %d entries\n", len(data.FoodLogs))
			fmt.Printf("  %d saved foods\n", len(data.FoodItems))
			if data.Goals != nil {
				fmt.Printf("  goals (%.0f kcal, %.0f g protein)\n", data.Goals.CalorieGoal, data.Goals.ProteinGoal)
			}
			return nil
		}

		dst, err := openDestination(cmd)
		if err != nil {
			return err
		}
		defer dst.Close()

		summary, err := storage.MigrateData(ctx, repo, dst, srcUser, dstUser)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated to %s", migrateTo)
		fmt.Printf("  %d entries, %d saved foods", summary.FoodLogs, summary.FoodItems)
		if summary.Goals {
			fmt.Print(", goals")
		}
		fmt.Println()
		if summary.Skipped > 0 {
			fmt.Println(faint.Sprintf("  %d already present, skipped", summary.Skipped))
		}
		return nil
	},
}

func openDestination(cmd *cobra.Command) (storage.Repository, error) {
	switch migrateTo {
	case "postgres":
		dsn := migrateDSN
		if dsn == "" {
			dsn = cfg.DatabaseURL
		}
		if dsn == "" {
			return nil, errors.New("postgres destination requires --dsn or DATABASE_URL")
		}
		return storage.OpenPostgres(cmd.Context(), dsn)
	case "sqlite":
		path := config.ExpandPath(migratePath)
		if path == "" {
			path = storage.DefaultDBPath()
		}
		if dbPath != "" && config.ExpandPath(dbPath) == path {
			return nil, errors.New("source and destination are the same database")
		}
		return storage.Open(path)
	default:
		return nil, fmt.Errorf("unknown destination: %q (use postgres or sqlite)", migrateTo)
	}
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "postgres", "destination backend: postgres or sqlite")
	migrateCmd.Flags().StringVar(&migrateDSN, "dsn", "", "PostgreSQL connection string")
	migrateCmd.Flags().StringVar(&migratePath, "path", "", "SQLite destination file")
	migrateCmd.Flags().StringVar(&migrateToUser, "to-user", "", "owner of the copied data (default: same user)")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	rootCmd.AddCommand(migrateCmd)
}
