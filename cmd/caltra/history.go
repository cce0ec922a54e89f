// ABOUTME: CLI command for the monthly history calendar.
// ABOUTME: Colors each day by calorie status and can show one day's totals.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/views"
	"github.com/spf13/cobra"
)

var (
	historyMonth string
	historyDay   string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h", "cal"},
	Short:   "Show a month of history",
	Long: `Show a calendar of one month with each logged day colored by status.

LEGEND:

  yellow  low   (at or under half the calorie goal)
  green   ok    (up to the goal)
  red     over  (above the goal)
  faint         nothing logged

EXAMPLES:

  caltra history                         # This month
  caltra history --month 2024-02         # February 2024
  caltra history --day 2024-02-14        # Calendar plus that day's totals`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cal := views.NewCalendar(svc, currentUser())

		switch {
		case historyDay != "":
			d, err := aggregate.ParseDate(historyDay)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", historyDay)
			}
			cal.GotoMonth(ctx, d.Year(), d.Month())
		case historyMonth != "":
			m, err := time.Parse("2006-01", historyMonth)
			if err != nil {
				return fmt.Errorf("invalid month format: %s (use YYYY-MM)", historyMonth)
			}
			cal.GotoMonth(ctx, m.Year(), m.Month())
		default:
			cal.Load(ctx)
		}

		printCalendar(cal)

		if historyDay != "" {
			fmt.Println()
			bucket := cal.Select(historyDay)
			if bucket == nil {
				fmt.Printf("Nothing logged on %s.\n", historyDay)
				return nil
			}
			g := cal.Goals()
			status := aggregate.StatusFor(bucket.TotalCalories, g.CalorieGoal)
			color.New(color.Bold).Println(bucket.Date)
			fmt.Printf("  %.0f / %.0f kcal, %.1f / %.0f g protein  %s\n",
				bucket.TotalCalories, g.CalorieGoal, bucket.TotalProtein, g.ProteinGoal,
				statusColor(status).Sprint(status))
			for _, e := range bucket.Entries {
				printEntry(e)
			}
		}
		return nil
	},
}

func printCalendar(cal *views.Calendar) {
	color.New(color.Bold).Println(cal.Title())
	fmt.Println(faint.Sprint(" Su  Mo  Tu  We  Th  Fr  Sa"))

	for _, week := range cal.Grid() {
		for _, c := range week {
			if !c.InMonth() {
				fmt.Print("    ")
				continue
			}
			cell := faint.Sprintf("%3d", c.Day)
			if c.HasData() {
				cell = statusColor(c.Status).Sprintf("%3d", c.Day)
			}
			if c.IsToday {
				cell = color.New(color.Underline).Sprint(cell)
			}
			fmt.Print(cell + " ")
		}
		fmt.Println()
	}

	g := cal.Goals()
	fmt.Println(faint.Sprintf("goal %.0f kcal, %.0f g protein", g.CalorieGoal, g.ProteinGoal))
}

func init() {
	historyCmd.Flags().StringVar(&historyMonth, "month", "", "month to show (YYYY-MM)")
	historyCmd.Flags().StringVar(&historyDay, "day", "", "show this day's totals (YYYY-MM-DD)")
	rootCmd.AddCommand(historyCmd)
}
