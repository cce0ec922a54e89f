// ABOUTME: CLI command for logging food.
// ABOUTME: Takes values directly, from a saved food, or from an AI estimate.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/harperreed/caltra/internal/views"
	"github.com/spf13/cobra"
)

var (
	addWeight   float64
	addCalories float64
	addProtein  float64
	addMeal     string
	addAt       string
	addDate     string
	addSaved    bool
	addEstimate bool
	addRemember bool
)

var addCmd = &cobra.Command{
	Use:     "add <food...>",
	Aliases: []string{"a", "log"},
	Short:   "Log a food entry",
	Long: `Log a food entry for today or another day.

Nutrition comes from one of three places:

  --calories/--protein   values you already know for the portion
  --saved                a food from your saved foods, scaled to --weight
  --estimate             an AI estimate per 100 g, scaled to --weight

Estimated foods are added to your saved foods automatically. Use --remember
to save a food entered with --calories as well.

MEALS:

  Breakfast, Dinner, Supper, Snack (default). Any other name is stored as
  typed and listed with the snacks.

EXAMPLES:

  caltra add banana -w 120 -c 107 -p 1.3
  caltra add "greek yogurt" -w 170 -c 100 -p 17 -m Breakfast --remember
  caltra add oats --saved -w 40 -m Breakfast
  caltra add "grilled chicken breast" -w 200 --estimate -m Dinner
  caltra add apple -c 95 --date 2024-03-01
  caltra add pizza -c 800 -p 30 --at "2024-03-01 19:30"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user := currentUser()
		name := strings.TrimSpace(strings.Join(args, " "))

		if addSaved && addEstimate {
			return errors.New("use either --saved or --estimate, not both")
		}

		in := tracker.EntryInput{FoodName: name, WeightG: addWeight, MealType: addMeal, Date: addDate}
		if addAt != "" {
			t, err := parseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			in.EatenAt = t
		}
		if addDate != "" {
			if _, err := aggregate.ParseDate(addDate); err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", addDate)
			}
		}

		var item *models.FoodItem
		switch {
		case addSaved:
			saved, err := svc.Repository().FindFoodItemByName(ctx, user, name)
			if err != nil {
				return fmt.Errorf("saved food not found: %s", name)
			}
			if !cmd.Flags().Changed("weight") {
				in.WeightG = saved.ServingSize
			}
			in.FoodName = saved.Name
			in.Calories, in.Protein = saved.Portion(in.WeightG)

		case addEstimate:
			form := views.NewEntryForm(svc, user)
			form.SetText(name)
			form.SetWeight(addWeight)
			form.SetMealType(addMeal)
			if err := form.Analyze(ctx); err != nil {
				if errors.Is(err, tracker.ErrEstimatorUnavailable) {
					return errors.New("estimation needs an API key (set OPENROUTER_API_KEY or api_key in config)")
				}
				return fmt.Errorf("estimate failed: %w (log it with --calories instead)", err)
			}
			built, saved, err := form.Build()
			if err != nil {
				return err
			}
			built.EatenAt, built.Date = in.EatenAt, in.Date
			in, item = built, saved

		default:
			if !cmd.Flags().Changed("calories") {
				return errors.New("provide --calories, --saved, or --estimate")
			}
			in.Calories, in.Protein = addCalories, addProtein
			if addRemember {
				form := views.NewEntryForm(svc, user)
				form.SetText(name)
				form.SetWeight(addWeight)
				form.SetManual(addCalories, addProtein)
				_, saved, err := form.Build()
				if err != nil {
					return err
				}
				item = saved
			}
		}

		e, err := svc.AddFoodLog(ctx, user, in)
		if err != nil {
			return fmt.Errorf("failed to add food: %w", err)
		}

		color.Green("✓ Added %s", e.FoodName)
		fmt.Printf("  %s %s %.0f g  %.0f kcal  %.1f g protein  (%s)\n",
			faint.Sprint(shortID(e.ID)),
			faint.Sprint(e.EatenAt.Format("2006-01-02 15:04")),
			e.WeightG, e.Calories, e.Protein, e.MealType)

		if item != nil {
			created, err := svc.SaveFoodItem(ctx, user, item)
			if err != nil {
				return fmt.Errorf("failed to save food: %w", err)
			}
			if created {
				fmt.Printf("  %s\n", faint.Sprintf("saved %s (%.0f kcal, %.1f g protein per 100 g)",
					item.Name, item.CaloriesPer100g, item.ProteinPer100g))
			}
		}

		return nil
	},
}

func init() {
	addCmd.Flags().Float64VarP(&addWeight, "weight", "w", views.DefaultWeight, "portion weight in grams")
	addCmd.Flags().Float64VarP(&addCalories, "calories", "c", 0, "calories in the portion")
	addCmd.Flags().Float64VarP(&addProtein, "protein", "p", 0, "protein in the portion (g)")
	addCmd.Flags().StringVarP(&addMeal, "meal", "m", "", "meal category (default Snack)")
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp (YYYY-MM-DD HH:MM, UTC)")
	addCmd.Flags().StringVar(&addDate, "date", "", "log on this day (YYYY-MM-DD)")
	addCmd.Flags().BoolVarP(&addSaved, "saved", "s", false, "use a saved food by name")
	addCmd.Flags().BoolVarP(&addEstimate, "estimate", "e", false, "estimate nutrition with AI")
	addCmd.Flags().BoolVar(&addRemember, "remember", false, "save manual values to saved foods")
	rootCmd.AddCommand(addCmd)
}
