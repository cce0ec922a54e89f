// ABOUTME: CLI command for showing one day's food log.
// ABOUTME: Prints goal progress and the entries grouped by meal.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/harperreed/caltra/internal/views"
	"github.com/spf13/cobra"
)

var (
	todayDate string
	todayPrev int
)

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"list", "ls", "l"},
	Short:   "Show a day's food log",
	Long: `Show the food log for today or another day.

OUTPUT FORMAT:

  Calorie and protein progress bars against your goals, then each meal
  with its entries: ID  TIME  FOOD  WEIGHT  CALORIES  PROTEIN

  The ID is an 8-character prefix you can use with edit and delete.

STATUS:

  low    at or under half the calorie goal
  ok     over half, up to the goal
  over   above the goal

EXAMPLES:

  caltra today                     # Today's log
  caltra list --date 2024-03-01    # A specific day
  caltra today --back 1            # Yesterday`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day := views.NewDailyLog(svc, currentUser())

		if todayDate != "" {
			date, err := aggregate.ParseDate(todayDate)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", todayDate)
			}
			day.Goto(ctx, date)
		} else {
			day.Load(ctx)
		}
		for i := 0; i < todayPrev; i++ {
			day.Prev(ctx)
		}

		printDay(day.View(), day.IsToday())
		return nil
	},
}

func printDay(v *tracker.DayView, isToday bool) {
	title := v.Date
	if isToday {
		title += " (today)"
	}
	color.New(color.Bold).Println(title)

	sc := statusColor(v.Status)
	fmt.Println(progressBar("Calories", "kcal", v.Calories, sc))
	fmt.Println(progressBar("Protein", "g", v.Protein, color.New(color.FgCyan)))
	fmt.Printf("%s %s\n", padRight("Status", 9), sc.Sprint(v.Status))

	if len(v.Entries) == 0 {
		fmt.Println()
		fmt.Println("No food logged.")
		return
	}

	for _, g := range v.Meals {
		if len(g.Entries) == 0 {
			continue
		}
		fmt.Println()
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(g.MealType),
			faint.Sprintf("%.0f kcal, %.1f g protein", g.Calories, g.Protein))
		for _, e := range g.Entries {
			printEntry(e)
		}
	}
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "day to show (YYYY-MM-DD)")
	todayCmd.Flags().IntVarP(&todayPrev, "back", "b", 0, "days back from the shown day")
	rootCmd.AddCommand(todayCmd)
}
