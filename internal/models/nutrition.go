// ABOUTME: Nutrition estimate type and per-100g scaling helpers.
// ABOUTME: Calories round to whole numbers, protein to one decimal place.
package models

import "math"

// Estimate is a per-100g nutrition estimate for a named food.
type Estimate struct {
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"caloriesPer100g"`
	ProteinPer100g  float64 `json:"proteinPer100g"`
}

// ToFoodItem converts the estimate into a catalog item for userID.
func (e Estimate) ToFoodItem(userID string) *FoodItem {
	return NewFoodItem(userID, e.Name, e.CaloriesPer100g, e.ProteinPer100g)
}

// ScaleCalories returns the whole-number calories in weightG grams.
func ScaleCalories(per100g, weightG float64) float64 {
	return math.Round(per100g / 100 * weightG)
}

// ScaleProtein returns the protein in weightG grams rounded to 0.1 g.
func ScaleProtein(per100g, weightG float64) float64 {
	return math.Round(per100g/100*weightG*10) / 10
}
