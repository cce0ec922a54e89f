// ABOUTME: Shared parsing and formatting helpers for caltra CLI output.
// ABOUTME: Timestamps, short IDs, padding, and the goal progress bar.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
)

const barWidth = 20

var faint = color.New(color.Faint)

// parseTime accepts the timestamp formats the CLI documents. Times without
// a zone are read as UTC.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// printEntry prints one log line: ID  TIME  FOOD  WEIGHT  CALORIES  PROTEIN.
func printEntry(e *models.FoodLogEntry) {
	fmt.Printf("  %s %s %s %6.0f g %6.0f kcal %6.1f g\n",
		faint.Sprint(shortID(e.ID)),
		faint.Sprint(e.EatenAt.Format("15:04")),
		padRight(truncate(e.FoodName, 24), 24),
		e.WeightG, e.Calories, e.Protein)
}

// statusColor returns the color used for a calorie status.
func statusColor(s aggregate.CalorieStatus) *color.Color {
	switch s {
	case aggregate.StatusOK:
		return color.New(color.FgGreen)
	case aggregate.StatusOver:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// progressBar renders p as a fixed-width bar followed by its numbers.
func progressBar(label, unit string, p aggregate.Progress, c *color.Color) string {
	filled := int(p.Percent / 100 * barWidth)
	bar := c.Sprint(strings.Repeat("█", filled)) + faint.Sprint(strings.Repeat("░", barWidth-filled))
	line := fmt.Sprintf("%s %s %.0f / %.0f %s (%.0f%%)",
		padRight(label, 9), bar, p.Consumed, p.Goal, unit, p.Percent)
	if p.Over > 0 {
		line += color.RedString(" +%.0f over", p.Over)
	}
	return line
}
