// ABOUTME: CLI command for estimating nutrition without logging.
// ABOUTME: Prints per-100g values and the portion, optionally saving the food.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	estimateWeight float64
	estimateSave   bool
)

var estimateCmd = &cobra.Command{
	Use:     "estimate <food...>",
	Aliases: []string{"est"},
	Short:   "Estimate calories and protein for a food",
	Long: `Ask the AI estimation service for a food's calories and protein per 100 g.

Requires an API key in OPENROUTER_API_KEY or api_key in the config file.

EXAMPLES:

  caltra estimate "banana"
  caltra estimate "chicken tikka masala" --weight 350
  caltra estimate "cottage cheese" --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		est, err := svc.AnalyzeFood(ctx, query)
		if err != nil {
			if errors.Is(err, tracker.ErrEstimatorUnavailable) {
				return errors.New("estimation needs an API key (set OPENROUTER_API_KEY or api_key in config)")
			}
			return fmt.Errorf("estimate failed: %w", err)
		}

		item := est.ToFoodItem(currentUser())
		calories, protein := item.Portion(estimateWeight)

		color.New(color.Bold).Println(est.Name)
		fmt.Printf("  per 100 g   %.0f kcal, %.1f g protein\n", est.CaloriesPer100g, est.ProteinPer100g)
		fmt.Printf("  %-11s %.0f kcal, %.1f g protein\n", fmt.Sprintf("%.0f g", estimateWeight), calories, protein)

		if estimateSave {
			created, err := svc.SaveFoodItem(ctx, currentUser(), item)
			if err != nil {
				return fmt.Errorf("failed to save food: %w", err)
			}
			if created {
				color.Green("✓ Saved %s", item.Name)
			} else {
				color.Yellow("%s is already saved", item.Name)
			}
		}
		return nil
	},
}

func init() {
	estimateCmd.Flags().Float64VarP(&estimateWeight, "weight", "w", 100, "portion weight in grams")
	estimateCmd.Flags().BoolVar(&estimateSave, "save", false, "save the estimate to saved foods")
	rootCmd.AddCommand(estimateCmd)
}
