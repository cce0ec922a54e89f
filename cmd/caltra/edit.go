// ABOUTME: CLI command for editing a logged food entry.
// ABOUTME: Only the flags given on the command line are changed.
package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/models"
	"github.com/spf13/cobra"
)

var (
	editName     string
	editWeight   float64
	editCalories float64
	editProtein  float64
	editMeal     string
	editAt       string
)

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Aliases: []string{"e", "update"},
	Short:   "Edit a food entry",
	Long: `Edit a logged food entry by its ID or ID prefix.

Only the fields you pass are changed.

EXAMPLES:

  caltra edit abc12345 --calories 250
  caltra edit abc1 --meal Dinner --weight 180
  caltra edit abc1 --name "banana bread" --at "2024-03-01 08:15"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user := currentUser()
		flags := cmd.Flags()

		var patch models.FoodLogPatch
		if flags.Changed("name") {
			patch.FoodName = &editName
		}
		if flags.Changed("weight") {
			patch.WeightG = &editWeight
		}
		if flags.Changed("calories") {
			patch.Calories = &editCalories
		}
		if flags.Changed("protein") {
			patch.Protein = &editProtein
		}
		if flags.Changed("meal") {
			mt := models.MealType(editMeal)
			patch.MealType = &mt
		}
		if flags.Changed("at") {
			t, err := parseTime(editAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", editAt)
			}
			patch.EatenAt = &t
		}
		if patch.IsEmpty() {
			return errors.New("nothing to change (use --name, --weight, --calories, --protein, --meal, or --at)")
		}

		id, err := svc.ResolveFoodLogID(ctx, user, args[0])
		if err != nil {
			return fmt.Errorf("entry not found: %s", args[0])
		}

		e, err := svc.UpdateFoodLog(ctx, user, id, patch)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		color.Green("✓ Updated %s", e.FoodName)
		fmt.Printf("  %s %s %.0f g  %.0f kcal  %.1f g protein  (%s)\n",
			faint.Sprint(shortID(e.ID)),
			faint.Sprint(e.EatenAt.Format("2006-01-02 15:04")),
			e.WeightG, e.Calories, e.Protein, e.MealType)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editName, "name", "", "food name")
	editCmd.Flags().Float64VarP(&editWeight, "weight", "w", 0, "portion weight in grams")
	editCmd.Flags().Float64VarP(&editCalories, "calories", "c", 0, "calories in the portion")
	editCmd.Flags().Float64VarP(&editProtein, "protein", "p", 0, "protein in the portion (g)")
	editCmd.Flags().StringVarP(&editMeal, "meal", "m", "", "meal category")
	editCmd.Flags().StringVar(&editAt, "at", "", "timestamp (YYYY-MM-DD HH:MM, UTC)")
	rootCmd.AddCommand(editCmd)
}
