// ABOUTME: Tests for the DailyLog view.
// ABOUTME: Covers loading, navigation, optimistic writes, and rollback on failure.
package views

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyLogLoadAndNavigate(t *testing.T) {
	svc, _ := setupTracker(t)
	ctx := context.Background()

	_, err := svc.AddFoodLog(ctx, testUser, tracker.EntryInput{FoodName: "Toast", Calories: 90, Date: "2024-03-04"})
	require.NoError(t, err)
	_, err = svc.AddFoodLog(ctx, testUser, tracker.EntryInput{FoodName: "Eggs", Calories: 140, Protein: 12})
	require.NoError(t, err)
	_, err = svc.UpdateGoals(ctx, testUser, 1800, 120)
	require.NoError(t, err)

	day := NewDailyLog(svc, testUser)
	assert.True(t, day.IsToday())
	day.Load(ctx)

	require.Len(t, day.Entries(), 1)
	assert.Equal(t, "Eggs", day.Entries()[0].FoodName)
	assert.Equal(t, 1800.0, day.Goals().CalorieGoal)

	day.Prev(ctx)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), day.Date())
	assert.False(t, day.IsToday())
	require.Len(t, day.Entries(), 1)
	assert.Equal(t, "Toast", day.Entries()[0].FoodName)

	day.Next(ctx)
	day.Next(ctx)
	assert.Empty(t, day.Entries())

	day.Goto(ctx, time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC))
	assert.True(t, day.IsToday())
	assert.Len(t, day.Entries(), 1)
}

func TestDailyLogAdd(t *testing.T) {
	svc, repo := setupTracker(t)
	ctx := context.Background()
	day := NewDailyLog(svc, testUser)
	day.Load(ctx)

	e, err := day.Add(ctx, tracker.EntryInput{FoodName: "Oats", WeightG: 80, Calories: 300, Protein: 10, MealType: "Breakfast"})
	require.NoError(t, err)
	require.Len(t, day.Entries(), 1)
	assert.Equal(t, e.ID, day.Entries()[0].ID)

	cal, prot := day.Totals()
	assert.Equal(t, 300.0, cal)
	assert.Equal(t, 10.0, prot)

	repo.failWrites = true
	_, err = day.Add(ctx, tracker.EntryInput{FoodName: "Cake", Calories: 400})
	assert.ErrorIs(t, err, errWrite)
	require.Len(t, day.Entries(), 1)
	assert.Equal(t, "Oats", day.Entries()[0].FoodName)

	repo.failWrites = false
	_, err = day.Add(ctx, tracker.EntryInput{FoodName: "  ", Calories: 1})
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)
	assert.Len(t, day.Entries(), 1)
}

func TestDailyLogAddOnPastDay(t *testing.T) {
	svc, _ := setupTracker(t)
	ctx := context.Background()
	day := NewDailyLog(svc, testUser)
	day.Prev(ctx)

	e, err := day.Add(ctx, tracker.EntryInput{FoodName: "Late snack", Calories: 150})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), e.EatenAt)
	assert.Len(t, day.Entries(), 1)
}

func TestDailyLogDelete(t *testing.T) {
	svc, repo := setupTracker(t)
	ctx := context.Background()
	day := NewDailyLog(svc, testUser)

	a, err := day.Add(ctx, tracker.EntryInput{FoodName: "A", Calories: 100})
	require.NoError(t, err)
	b, err := day.Add(ctx, tracker.EntryInput{FoodName: "B", Calories: 200})
	require.NoError(t, err)

	repo.failWrites = true
	err = day.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, errWrite)
	entries := day.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)

	repo.failWrites = false
	require.NoError(t, day.Delete(ctx, a.ID))
	entries = day.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].ID)

	cal, _ := day.Totals()
	assert.Equal(t, 200.0, cal)

	day.Load(ctx)
	assert.Len(t, day.Entries(), 1)

	assert.ErrorIs(t, day.Delete(ctx, a.ID), tracker.ErrNotFound)
}

func TestDailyLogUpdate(t *testing.T) {
	svc, repo := setupTracker(t)
	ctx := context.Background()
	day := NewDailyLog(svc, testUser)

	e, err := day.Add(ctx, tracker.EntryInput{FoodName: "Rice", WeightG: 100, Calories: 130})
	require.NoError(t, err)

	cal := 195.0
	repo.failWrites = true
	_, err = day.Update(ctx, e.ID, models.FoodLogPatch{Calories: &cal})
	assert.ErrorIs(t, err, errWrite)
	assert.Equal(t, 130.0, day.Entries()[0].Calories)

	repo.failWrites = false
	updated, err := day.Update(ctx, e.ID, models.FoodLogPatch{Calories: &cal})
	require.NoError(t, err)
	assert.Equal(t, 195.0, updated.Calories)
	assert.Equal(t, 195.0, day.Entries()[0].Calories)
}

func TestDailyLogGoalsAndView(t *testing.T) {
	svc, _ := setupTracker(t)
	ctx := context.Background()
	day := NewDailyLog(svc, testUser)

	assert.ErrorIs(t, day.SetGoals(ctx, -1, 100), tracker.ErrInvalidInput)
	require.NoError(t, day.SetGoals(ctx, 1000, 100))

	_, err := day.Add(ctx, tracker.EntryInput{FoodName: "Pizza", Calories: 1200, Protein: 50, MealType: "Dinner"})
	require.NoError(t, err)

	view := day.View()
	assert.Equal(t, "2024-03-05", view.Date)
	assert.Equal(t, 100.0, view.Calories.Percent)
	assert.Equal(t, 200.0, view.Calories.Over)
	assert.Equal(t, 50.0, view.Protein.Percent)

	groups := day.Groups()
	require.NotEmpty(t, groups)
	var dinner int
	for _, g := range groups {
		if g.MealType == models.MealDinner {
			dinner = len(g.Entries)
		}
	}
	assert.Equal(t, 1, dinner)
}
