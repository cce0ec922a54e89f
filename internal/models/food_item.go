// ABOUTME: FoodItem model for the per-user saved food catalog.
// ABOUTME: Items hold per-100g nutrition cached from estimates or manual entries.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultServingSize = 100
	DefaultUnit        = "g"
)

// FoodItem is a reusable per-100g nutrition record owned by one user.
type FoodItem struct {
	ID              uuid.UUID `json:"id" yaml:"id"`
	UserID          string    `json:"user_id" yaml:"user_id"`
	Name            string    `json:"name" yaml:"name"`
	CaloriesPer100g float64   `json:"calories_per_100g" yaml:"calories_per_100g"`
	ProteinPer100g  float64   `json:"protein_per_100g" yaml:"protein_per_100g"`
	ServingSize     float64   `json:"serving_size" yaml:"serving_size"`
	Unit            string    `json:"unit" yaml:"unit"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// NewFoodItem creates a catalog item with a 100 g default serving.
func NewFoodItem(userID, name string, caloriesPer100g, proteinPer100g float64) *FoodItem {
	return &FoodItem{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            name,
		CaloriesPer100g: caloriesPer100g,
		ProteinPer100g:  proteinPer100g,
		ServingSize:     DefaultServingSize,
		Unit:            DefaultUnit,
		CreatedAt:       time.Now().UTC(),
	}
}

// WithServing sets the serving size and unit, keeping defaults for zero values.
func (f *FoodItem) WithServing(size float64, unit string) *FoodItem {
	if size > 0 {
		f.ServingSize = size
	}
	if unit != "" {
		f.Unit = unit
	}
	return f
}

// ApplyDefaults fills in a missing serving size or unit.
func (f *FoodItem) ApplyDefaults() {
	if f.ServingSize <= 0 {
		f.ServingSize = DefaultServingSize
	}
	if f.Unit == "" {
		f.Unit = DefaultUnit
	}
}

// Portion returns the calories and protein in weightG grams of this food.
func (f *FoodItem) Portion(weightG float64) (calories, protein float64) {
	return ScaleCalories(f.CaloriesPer100g, weightG), ScaleProtein(f.ProteinPer100g, weightG)
}
