// ABOUTME: CLI commands for the saved food catalog.
// ABOUTME: List, search, add, and delete foods stored with per-100g nutrition.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/models"
	"github.com/spf13/cobra"
)

var (
	foodCalories float64
	foodProtein  float64
	foodServing  float64
	foodUnit     string
)

var foodsCmd = &cobra.Command{
	Use:     "foods",
	Aliases: []string{"f", "saved"},
	Short:   "List saved foods",
	Long: `List the foods you have saved, alphabetically.

Saved foods hold nutrition per 100 g and a default serving size. They are
created automatically by 'caltra add --estimate' and can be reused with
'caltra add <name> --saved'.

OUTPUT FORMAT:

  ID  NAME  KCAL/100G  PROTEIN/100G  SERVING

EXAMPLES:

  caltra foods                                  # List saved foods
  caltra foods search ban                       # Foods containing "ban"
  caltra foods add oats -c 379 -p 13.2 -s 40    # Save a food
  caltra foods delete abc123                    # Remove a saved food`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printFoods(svc.GetFoodItems(cmd.Context(), currentUser()))
		return nil
	},
}

var foodsSearchCmd = &cobra.Command{
	Use:     "search <query>",
	Aliases: []string{"find"},
	Short:   "Search saved foods by name",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		printFoods(svc.SearchFoodItems(cmd.Context(), currentUser(), query))
		return nil
	},
}

var foodsAddCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Save a food",
	Long: `Save a food with its nutrition per 100 g.

If a food with the same name (ignoring case) is already saved, the existing
one is kept.

EXAMPLES:

  caltra foods add oats --calories 379 --protein 13.2 --serving 40
  caltra foods add "peanut butter" -c 588 -p 25 -s 32`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := currentUser()
		name := strings.Join(args, " ")
		item := models.NewFoodItem(user, name, foodCalories, foodProtein).WithServing(foodServing, foodUnit)

		created, err := svc.SaveFoodItem(cmd.Context(), user, item)
		if err != nil {
			return fmt.Errorf("failed to save food: %w", err)
		}
		if !created {
			color.Yellow("%s is already saved", item.Name)
			return nil
		}

		color.Green("✓ Saved %s", item.Name)
		fmt.Printf("  %s %.0f kcal, %.1f g protein per 100 g\n",
			faint.Sprint(shortID(item.ID)), item.CaloriesPer100g, item.ProteinPer100g)
		return nil
	},
}

var foodsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a saved food",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user := currentUser()

		id, err := svc.ResolveFoodItemID(ctx, user, args[0])
		if err != nil {
			return fmt.Errorf("saved food not found: %s", args[0])
		}
		if err := svc.DeleteFoodItem(ctx, user, id); err != nil {
			return fmt.Errorf("failed to delete food: %w", err)
		}

		color.Yellow("✗ Deleted saved food %s", shortID(id))
		return nil
	},
}

func printFoods(items []*models.FoodItem) {
	if len(items) == 0 {
		fmt.Println("No saved foods found.")
		return
	}
	for _, f := range items {
		fmt.Printf("%s %s %6.0f kcal %6.1f g  %s\n",
			faint.Sprint(shortID(f.ID)),
			padRight(truncate(f.Name, 28), 28),
			f.CaloriesPer100g, f.ProteinPer100g,
			faint.Sprintf("serving %.0f %s", f.ServingSize, f.Unit))
	}
}

func init() {
	foodsAddCmd.Flags().Float64VarP(&foodCalories, "calories", "c", 0, "calories per 100 g")
	foodsAddCmd.Flags().Float64VarP(&foodProtein, "protein", "p", 0, "protein per 100 g")
	foodsAddCmd.Flags().Float64VarP(&foodServing, "serving", "s", models.DefaultServingSize, "default serving size")
	foodsAddCmd.Flags().StringVarP(&foodUnit, "unit", "u", models.DefaultUnit, "serving unit")
	_ = foodsAddCmd.MarkFlagRequired("calories")

	foodsCmd.AddCommand(foodsSearchCmd, foodsAddCmd, foodsDeleteCmd)
	rootCmd.AddCommand(foodsCmd)
}
