// ABOUTME: Tests for FoodLogEntry, MealType, and FoodLogPatch.
// ABOUTME: Validates constructors, meal type parsing, and partial updates.
package models

import (
	"testing"
	"time"
)

func TestNewFoodLogEntry(t *testing.T) {
	e := NewFoodLogEntry("user-1", "Oatmeal", 80, 300, 10.5)

	if e.ID.String() == "" {
		t.Error("expected UUID to be set")
	}
	if e.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", e.UserID)
	}
	if e.MealType != MealSnack {
		t.Errorf("MealType = %s, want Snack", e.MealType)
	}
	if e.EatenAt.IsZero() {
		t.Error("expected EatenAt to be set")
	}
	if e.EatenAt.Location() != time.UTC {
		t.Errorf("EatenAt location = %v, want UTC", e.EatenAt.Location())
	}
}

func TestWithMealTypeEmptyDefaultsToSnack(t *testing.T) {
	e := NewFoodLogEntry("u", "Tea", 200, 2, 0).WithMealType(MealBreakfast)
	if e.MealType != MealBreakfast {
		t.Errorf("MealType = %s, want Breakfast", e.MealType)
	}

	e.WithMealType("")
	if e.MealType != MealSnack {
		t.Errorf("MealType = %s, want Snack", e.MealType)
	}
}

func TestWithEatenAtConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	local := time.Date(2024, 3, 5, 22, 0, 0, 0, loc)

	e := NewFoodLogEntry("u", "Toast", 40, 100, 3).WithEatenAt(local)
	if got := e.EatenAt.Format(time.RFC3339); got != "2024-03-06T03:00:00Z" {
		t.Errorf("EatenAt = %s, want 2024-03-06T03:00:00Z", got)
	}
}

func TestParseMealType(t *testing.T) {
	tests := []struct {
		input  string
		want   MealType
		wantOK bool
	}{
		{"Breakfast", MealBreakfast, true},
		{"dinner", MealDinner, true},
		{" SUPPER ", MealSupper, true},
		{"snack", MealSnack, true},
		{"Lunch", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseMealType(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseMealType(%q) = (%s, %v), want (%s, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMealTypeNormalize(t *testing.T) {
	tests := []struct {
		input MealType
		want  MealType
	}{
		{MealBreakfast, MealBreakfast},
		{"supper", MealSupper},
		{"", MealSnack},
		{"Lunch", MealSnack},
	}

	for _, tt := range tests {
		if got := tt.input.Normalize(); got != tt.want {
			t.Errorf("MealType(%q).Normalize() = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestMealTypeOrDefault(t *testing.T) {
	tests := []struct {
		input MealType
		want  MealType
	}{
		{MealDinner, MealDinner},
		{"Lunch", "Lunch"},
		{"breakfast", "breakfast"},
		{"", MealSnack},
		{"   ", MealSnack},
	}

	for _, tt := range tests {
		if got := tt.input.OrDefault(); got != tt.want {
			t.Errorf("MealType(%q).OrDefault() = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestFoodLogPatch(t *testing.T) {
	e := NewFoodLogEntry("u", "Rice", 150, 195, 4)

	var empty FoodLogPatch
	if !empty.IsEmpty() {
		t.Error("expected zero patch to be empty")
	}

	name := "Brown rice"
	cal := 170.0
	meal := MealDinner
	p := FoodLogPatch{FoodName: &name, Calories: &cal, MealType: &meal}
	if p.IsEmpty() {
		t.Fatal("expected patch to be non-empty")
	}
	p.Apply(e)

	if e.FoodName != "Brown rice" {
		t.Errorf("FoodName = %s, want Brown rice", e.FoodName)
	}
	if e.Calories != 170 {
		t.Errorf("Calories = %v, want 170", e.Calories)
	}
	if e.MealType != MealDinner {
		t.Errorf("MealType = %s, want Dinner", e.MealType)
	}
	if e.WeightG != 150 || e.Protein != 4 {
		t.Errorf("untouched fields changed: weight=%v protein=%v", e.WeightG, e.Protein)
	}
}
