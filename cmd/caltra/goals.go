// ABOUTME: CLI commands for viewing and setting daily goals.
// ABOUTME: Goals default to 2000 kcal and 150 g protein until set.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var goalsCmd = &cobra.Command{
	Use:     "goals",
	Aliases: []string{"g"},
	Short:   "Show daily goals",
	Long: `Show your daily calorie and protein goals.

EXAMPLES:

  caltra goals                # Show goals
  caltra goals set 2200 160   # Set calories and protein`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := svc.GetGoals(cmd.Context(), currentUser())
		fmt.Printf("Calories  %.0f kcal\n", g.CalorieGoal)
		fmt.Printf("Protein   %.0f g\n", g.ProteinGoal)
		if g.UpdatedAt.IsZero() {
			fmt.Println(faint.Sprint("(defaults)"))
		} else {
			fmt.Println(faint.Sprintf("updated %s", g.UpdatedAt.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

var goalsSetCmd = &cobra.Command{
	Use:   "set <calories> <protein>",
	Short: "Set daily goals",
	Long: `Set your daily calorie and protein goals. Both must be positive.

EXAMPLES:

  caltra goals set 2200 160
  caltra goals set 1800 120`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		calories, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid calorie goal: %s", args[0])
		}
		protein, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid protein goal: %s", args[1])
		}

		g, err := svc.UpdateGoals(cmd.Context(), currentUser(), calories, protein)
		if err != nil {
			return fmt.Errorf("failed to set goals: %w", err)
		}

		color.Green("✓ Goals set")
		fmt.Printf("  %.0f kcal, %.0f g protein\n", g.CalorieGoal, g.ProteinGoal)
		return nil
	},
}

func init() {
	goalsCmd.AddCommand(goalsSetCmd)
	rootCmd.AddCommand(goalsCmd)
}
