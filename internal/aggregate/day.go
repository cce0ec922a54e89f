// ABOUTME: Groups food log entries into UTC calendar days and meal categories.
// ABOUTME: Provides date keys, day and month ranges, totals, and goal progress.
package aggregate

import (
	"sort"
	"time"

	"github.com/harperreed/caltra/internal/models"
)

// DateLayout is the ISO date format used for bucket keys.
const DateLayout = "2006-01-02"

// DayBucket aggregates all entries sharing a UTC calendar date.
type DayBucket struct {
	Date          string                 `json:"date" yaml:"date"`
	TotalCalories float64                `json:"total_calories" yaml:"total_calories"`
	TotalProtein  float64                `json:"total_protein" yaml:"total_protein"`
	Entries       []*models.FoodLogEntry `json:"entries" yaml:"entries"`
}

// Add appends an entry and accumulates its totals.
func (b *DayBucket) Add(e *models.FoodLogEntry) {
	b.TotalCalories += e.Calories
	b.TotalProtein += e.Protein
	b.Entries = append(b.Entries, e)
}

// DateKey returns the UTC calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// StartOfDay truncates t to midnight of its UTC calendar date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayRange returns the half-open UTC interval [start, end) covering t's date.
func DayRange(t time.Time) (start, end time.Time) {
	start = StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// MonthRange returns the half-open UTC interval [start, end) covering a month.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// GroupByDay buckets entries by the UTC date of EatenAt in a single pass.
// Entries without a meal type are copied into the bucket as snacks.
func GroupByDay(entries []*models.FoodLogEntry) map[string]*DayBucket {
	buckets := make(map[string]*DayBucket)
	for _, e := range entries {
		key := DateKey(e.EatenAt)
		b, ok := buckets[key]
		if !ok {
			b = &DayBucket{Date: key, Entries: []*models.FoodLogEntry{}}
			buckets[key] = b
		}

		entry := *e
		if entry.MealType == "" {
			entry.MealType = models.MealSnack
		}
		b.Add(&entry)
	}
	return buckets
}

// SortedKeys returns bucket keys in ascending date order.
func SortedKeys(buckets map[string]*DayBucket) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Totals sums calories and protein over entries.
func Totals(entries []*models.FoodLogEntry) (calories, protein float64) {
	for _, e := range entries {
		calories += e.Calories
		protein += e.Protein
	}
	return calories, protein
}
