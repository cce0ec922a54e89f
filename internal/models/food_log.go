// ABOUTME: FoodLogEntry model and MealType enum for daily food tracking.
// ABOUTME: An entry records one food eaten at a point in time with its calories and protein.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MealType is the free-text meal category attached to a log entry.
type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealDinner    MealType = "Dinner"
	MealSupper    MealType = "Supper"
	MealSnack     MealType = "Snack"
)

// AllMealTypes lists the meal categories in display order.
var AllMealTypes = []MealType{MealBreakfast, MealDinner, MealSupper, MealSnack}

// ParseMealType matches s against the known meal types, ignoring case.
func ParseMealType(s string) (MealType, bool) {
	for _, mt := range AllMealTypes {
		if strings.EqualFold(string(mt), strings.TrimSpace(s)) {
			return mt, true
		}
	}
	return "", false
}

// Normalize folds empty and unknown categories into Snack. It is used for
// grouping only; stored categories keep the text they were logged with.
func (m MealType) Normalize() MealType {
	if mt, ok := ParseMealType(string(m)); ok {
		return mt
	}
	return MealSnack
}

// OrDefault returns m, or Snack when m is blank.
func (m MealType) OrDefault() MealType {
	if strings.TrimSpace(string(m)) == "" {
		return MealSnack
	}
	return m
}

// FoodLogEntry is a single food eaten by a user.
type FoodLogEntry struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	FoodName  string    `json:"food_name" yaml:"food_name"`
	WeightG   float64   `json:"weight_g" yaml:"weight_g"`
	Calories  float64   `json:"calories" yaml:"calories"`
	Protein   float64   `json:"protein" yaml:"protein"`
	EatenAt   time.Time `json:"eaten_at" yaml:"eaten_at"`
	MealType  MealType  `json:"meal_type" yaml:"meal_type"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewFoodLogEntry creates an entry eaten now, categorised as a snack.
func NewFoodLogEntry(userID, foodName string, weightG, calories, protein float64) *FoodLogEntry {
	now := time.Now().UTC()
	return &FoodLogEntry{
		ID:        uuid.New(),
		UserID:    userID,
		FoodName:  foodName,
		WeightG:   weightG,
		Calories:  calories,
		Protein:   protein,
		EatenAt:   now,
		MealType:  MealSnack,
		CreatedAt: now,
	}
}

// WithEatenAt sets a custom eaten_at timestamp, stored in UTC.
func (e *FoodLogEntry) WithEatenAt(t time.Time) *FoodLogEntry {
	e.EatenAt = t.UTC()
	return e
}

// WithMealType sets the meal category. Empty values fall back to Snack.
func (e *FoodLogEntry) WithMealType(mt MealType) *FoodLogEntry {
	e.MealType = mt.OrDefault()
	return e
}

// FoodLogPatch carries a partial update. Nil fields are left unchanged.
type FoodLogPatch struct {
	FoodName *string    `json:"food_name,omitempty"`
	WeightG  *float64   `json:"weight_g,omitempty"`
	Calories *float64   `json:"calories,omitempty"`
	Protein  *float64   `json:"protein,omitempty"`
	MealType *MealType  `json:"meal_type,omitempty"`
	EatenAt  *time.Time `json:"eaten_at,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p FoodLogPatch) IsEmpty() bool {
	return p.FoodName == nil && p.WeightG == nil && p.Calories == nil &&
		p.Protein == nil && p.MealType == nil && p.EatenAt == nil
}

// Apply copies the non-nil fields of the patch onto e.
func (p FoodLogPatch) Apply(e *FoodLogEntry) {
	if p.FoodName != nil {
		e.FoodName = *p.FoodName
	}
	if p.WeightG != nil {
		e.WeightG = *p.WeightG
	}
	if p.Calories != nil {
		e.Calories = *p.Calories
	}
	if p.Protein != nil {
		e.Protein = *p.Protein
	}
	if p.MealType != nil {
		e.MealType = *p.MealType
	}
	if p.EatenAt != nil {
		e.EatenAt = p.EatenAt.UTC()
	}
}
