// ABOUTME: Buckets a day's entries by meal category for display.
// ABOUTME: Unknown or missing categories are shown under Snack.
package aggregate

import "github.com/harperreed/caltra/internal/models"

// MealGroup holds the entries of one meal category.
type MealGroup struct {
	MealType models.MealType        `json:"meal_type"`
	Calories float64                `json:"calories"`
	Protein  float64                `json:"protein"`
	Entries  []*models.FoodLogEntry `json:"entries"`
}

// GroupByMeal returns one group per meal type in display order.
// Groups are always present, even when empty.
func GroupByMeal(entries []*models.FoodLogEntry) []MealGroup {
	index := make(map[models.MealType]int, len(models.AllMealTypes))
	groups := make([]MealGroup, len(models.AllMealTypes))
	for i, mt := range models.AllMealTypes {
		index[mt] = i
		groups[i] = MealGroup{MealType: mt, Entries: []*models.FoodLogEntry{}}
	}

	for _, e := range entries {
		g := &groups[index[e.MealType.Normalize()]]
		g.Entries = append(g.Entries, e)
		g.Calories += e.Calories
		g.Protein += e.Protein
	}
	return groups
}
