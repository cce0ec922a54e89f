// ABOUTME: CLI command for deleting food entries.
// ABOUTME: Supports deletion by full ID or ID prefix.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a food entry",
	Long: `Delete a food entry by its ID or ID prefix.

You can use either the full UUID or just the first few characters (prefix).
The ID prefix is shown in the first column of 'caltra today' output.

EXAMPLES:

  caltra delete abc12345                    # Delete by 8-char prefix
  caltra delete abc12345-1234-1234-...     # Delete by full UUID
  caltra rm abc1                            # Short prefix (if unique)

CAUTION:

  This permanently deletes the entry. There is no undo.
  If the prefix matches multiple entries, an error is returned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteEntry(cmd.Context(), args[0])
	},
}

func deleteEntry(ctx context.Context, idOrPrefix string) error {
	user := currentUser()
	id, err := svc.ResolveFoodLogID(ctx, user, idOrPrefix)
	if err != nil {
		return fmt.Errorf("entry not found: %s", idOrPrefix)
	}

	// Fetch first to show what we're deleting
	e, err := svc.Repository().GetFoodLog(ctx, user, id)
	if err != nil {
		return fmt.Errorf("entry not found: %s", idOrPrefix)
	}

	if err := svc.DeleteFoodLog(ctx, user, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	color.Yellow("✗ Deleted %s", e.FoodName)
	fmt.Printf("  %s %.0f kcal  %.1f g protein\n",
		faint.Sprint(shortID(e.ID)), e.Calories, e.Protein)
	return nil
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
