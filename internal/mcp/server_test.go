// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers over a temp SQLite store.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const testUser = "local"

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

type fakeEstimator struct {
	est *models.Estimate
	err error
}

func (f fakeEstimator) Estimate(context.Context, string) (*models.Estimate, error) {
	return f.est, f.err
}

// setupTestServer creates a server over a database in a temp directory.
func setupTestServer(t *testing.T, opts ...tracker.Option) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "caltra.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	opts = append([]tracker.Option{
		tracker.WithLogger(logging.Discard()),
		tracker.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	server, err := NewServer(tracker.New(db, opts...), testUser)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func ptr[T any](v T) *T { return &v }

func TestNewServer(t *testing.T) {
	server, _ := setupTestServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.tracker == nil {
		t.Error("Expected non-nil tracker")
	}
	if server.userID != testUser {
		t.Errorf("userID = %q, want %q", server.userID, testUser)
	}
}

func TestNewServerRequiresUser(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "caltra.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := NewServer(tracker.New(db), ""); !errors.Is(err, tracker.ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := NewServer(nil, testUser); err == nil {
		t.Error("Expected error for nil tracker")
	}
}

func TestHandleAddFood(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    addFoodInput
		wantErr  bool
		wantMeal string
		wantAt   string
	}{
		{
			name:     "plain entry defaults to snack eaten now",
			input:    addFoodInput{FoodName: "Apple", WeightG: 150, Calories: 78, Protein: 0.4},
			wantMeal: "Snack",
			wantAt:   "2024-03-05T12:00:00Z",
		},
		{
			name:     "known meal type",
			input:    addFoodInput{FoodName: "Porridge", Calories: 250, MealType: "Breakfast"},
			wantMeal: "Breakfast",
			wantAt:   "2024-03-05T12:00:00Z",
		},
		{
			name:     "free text meal type kept as given",
			input:    addFoodInput{FoodName: "Sandwich", Calories: 400, MealType: "Lunch"},
			wantMeal: "Lunch",
			wantAt:   "2024-03-05T12:00:00Z",
		},
		{
			name:     "RFC3339 timestamp",
			input:    addFoodInput{FoodName: "Steak", Calories: 500, EatenAt: "2024-03-04T19:30:00Z"},
			wantMeal: "Snack",
			wantAt:   "2024-03-04T19:30:00Z",
		},
		{
			name:     "simple timestamp",
			input:    addFoodInput{FoodName: "Soup", Calories: 120, EatenAt: "2024-03-04 13:00"},
			wantMeal: "Snack",
			wantAt:   "2024-03-04T13:00:00Z",
		},
		{
			name:     "date only",
			input:    addFoodInput{FoodName: "Rice", Calories: 200, Date: "2024-03-01"},
			wantMeal: "Snack",
			wantAt:   "2024-03-01T00:00:00Z",
		},
		{name: "missing name", input: addFoodInput{Calories: 10}, wantErr: true},
		{name: "negative calories", input: addFoodInput{FoodName: "X", Calories: -5}, wantErr: true},
		{name: "bad timestamp", input: addFoodInput{FoodName: "X", EatenAt: "yesterday"}, wantErr: true},
		{name: "unknown saved food", input: addFoodInput{SavedFood: "Nothing"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if output.Entry.FoodName != tt.input.FoodName {
				t.Errorf("FoodName = %s, want %s", output.Entry.FoodName, tt.input.FoodName)
			}
			if output.Entry.MealType != tt.wantMeal {
				t.Errorf("MealType = %s, want %s", output.Entry.MealType, tt.wantMeal)
			}
			if output.Entry.EatenAt != tt.wantAt {
				t.Errorf("EatenAt = %s, want %s", output.Entry.EatenAt, tt.wantAt)
			}
			if output.Message == "" {
				t.Error("Expected non-empty Message")
			}
		})
	}
}

func TestHandleAddFoodFromSavedFood(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handleSaveFood(ctx, &mcp.CallToolRequest{}, saveFoodInput{
		Name: "Chicken breast", CaloriesPer100g: 165, ProteinPer100g: 31, ServingSize: 120,
	}); err != nil {
		t.Fatalf("handleSaveFood failed: %v", err)
	}

	_, output, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{
		SavedFood: "chicken BREAST", WeightG: 200, MealType: "Dinner",
	})
	if err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}
	if output.Entry.FoodName != "Chicken breast" {
		t.Errorf("FoodName = %s, want Chicken breast", output.Entry.FoodName)
	}
	if output.Entry.Calories != 330 || output.Entry.Protein != 62 {
		t.Errorf("Expected 330 kcal / 62 g, got %v / %v", output.Entry.Calories, output.Entry.Protein)
	}

	_, output, err = server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{SavedFood: "Chicken breast"})
	if err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}
	if output.Entry.WeightG != 120 || output.Entry.Calories != 198 {
		t.Errorf("Expected default serving of 120 g at 198 kcal, got %v g / %v kcal", output.Entry.WeightG, output.Entry.Calories)
	}
}

func TestHandleListFood(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	for _, in := range []addFoodInput{
		{FoodName: "Eggs", Calories: 140, Protein: 12, MealType: "Breakfast"},
		{FoodName: "Salad", Calories: 300, Protein: 8, MealType: "Dinner"},
		{FoodName: "Old toast", Calories: 90, Date: "2024-03-04"},
	} {
		if _, _, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, in); err != nil {
			t.Fatalf("handleAddFood failed: %v", err)
		}
	}

	_, output, err := server.handleListFood(ctx, &mcp.CallToolRequest{}, listFoodInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.Date != "2024-03-05" {
		t.Errorf("Date = %s, want 2024-03-05", output.Date)
	}
	if len(output.Entries) != 2 {
		t.Fatalf("Expected 2 entries today, got %d", len(output.Entries))
	}
	if output.TotalCalories != 440 || output.TotalProtein != 20 {
		t.Errorf("Expected totals 440/20, got %v/%v", output.TotalCalories, output.TotalProtein)
	}
	if output.CalorieGoal != models.DefaultCalorieGoal {
		t.Errorf("Expected default calorie goal, got %v", output.CalorieGoal)
	}
	if output.Status != "low" {
		t.Errorf("Status = %s, want low", output.Status)
	}

	_, output, err = server.handleListFood(ctx, &mcp.CallToolRequest{}, listFoodInput{Date: "2024-03-04"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(output.Entries) != 1 {
		t.Errorf("Expected 1 entry on 2024-03-04, got %d", len(output.Entries))
	}

	if _, _, err := server.handleListFood(ctx, &mcp.CallToolRequest{}, listFoodInput{Date: "04/03/2024"}); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestHandleListFoodEmpty(t *testing.T) {
	server, _ := setupTestServer(t)

	_, output, err := server.handleListFood(context.Background(), &mcp.CallToolRequest{}, listFoodInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.Entries == nil || len(output.Entries) != 0 {
		t.Errorf("Expected empty non-nil entries, got %#v", output.Entries)
	}
}

func TestHandleUpdateFood(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, added, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{FoodName: "Pasta", WeightG: 100, Calories: 350})
	if err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}
	prefix := added.Entry.ID[:8]

	_, output, err := server.handleUpdateFood(ctx, &mcp.CallToolRequest{}, updateFoodInput{
		ID: prefix, WeightG: ptr(150.0), Calories: ptr(525.0), MealType: ptr("Supper"),
	})
	if err != nil {
		t.Fatalf("handleUpdateFood failed: %v", err)
	}
	if output.Entry.WeightG != 150 || output.Entry.Calories != 525 {
		t.Errorf("Expected 150 g / 525 kcal, got %v / %v", output.Entry.WeightG, output.Entry.Calories)
	}
	if output.Entry.MealType != "Supper" {
		t.Errorf("MealType = %s, want Supper", output.Entry.MealType)
	}
	if output.Entry.FoodName != "Pasta" {
		t.Errorf("Expected untouched name, got %s", output.Entry.FoodName)
	}

	if _, _, err := server.handleUpdateFood(ctx, &mcp.CallToolRequest{}, updateFoodInput{ID: prefix}); err == nil {
		t.Error("Expected error for empty update")
	}
	if _, _, err := server.handleUpdateFood(ctx, &mcp.CallToolRequest{}, updateFoodInput{ID: "ffffffff", Calories: ptr(1.0)}); err == nil {
		t.Error("Expected error for unknown entry")
	}
}

func TestHandleDeleteFood(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()

	_, added, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{FoodName: "Cake", Calories: 400})
	if err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}

	_, output, err := server.handleDeleteFood(ctx, &mcp.CallToolRequest{}, idInput{ID: added.Entry.ID[:8]})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.Message == "" {
		t.Error("Expected non-empty message")
	}

	logs, err := db.ListFoodLogs(ctx, testUser, storage.LogFilter{})
	if err != nil {
		t.Fatalf("ListFoodLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected entry to be deleted, %d remain", len(logs))
	}

	_, _, err = server.handleDeleteFood(ctx, &mcp.CallToolRequest{}, idInput{ID: "nonexistent"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestHandleGoals(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, output, err := server.handleGetGoals(ctx, &mcp.CallToolRequest{}, getGoalsInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.CalorieGoal != models.DefaultCalorieGoal || output.ProteinGoal != models.DefaultProteinGoal {
		t.Errorf("Expected defaults, got %v/%v", output.CalorieGoal, output.ProteinGoal)
	}

	if _, _, err := server.handleSetGoals(ctx, &mcp.CallToolRequest{}, setGoalsInput{CalorieGoal: 0, ProteinGoal: 100}); err == nil {
		t.Error("Expected error for zero calorie goal")
	}

	if _, _, err := server.handleSetGoals(ctx, &mcp.CallToolRequest{}, setGoalsInput{CalorieGoal: 1800, ProteinGoal: 140}); err != nil {
		t.Fatalf("handleSetGoals failed: %v", err)
	}
	_, output, _ = server.handleGetGoals(ctx, &mcp.CallToolRequest{}, getGoalsInput{})
	if output.CalorieGoal != 1800 || output.ProteinGoal != 140 {
		t.Errorf("Expected 1800/140, got %v/%v", output.CalorieGoal, output.ProteinGoal)
	}
}

func TestHandleSavedFoods(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, saved, err := server.handleSaveFood(ctx, &mcp.CallToolRequest{}, saveFoodInput{Name: "Greek yogurt", CaloriesPer100g: 73, ProteinPer100g: 10})
	if err != nil {
		t.Fatalf("handleSaveFood failed: %v", err)
	}
	if !saved.Created || saved.Food.ServingSize != 100 || saved.Food.Unit != "g" {
		t.Errorf("Unexpected save output: %+v", saved)
	}

	_, again, err := server.handleSaveFood(ctx, &mcp.CallToolRequest{}, saveFoodInput{Name: "GREEK YOGURT", CaloriesPer100g: 99, ProteinPer100g: 1})
	if err != nil {
		t.Fatalf("second handleSaveFood failed: %v", err)
	}
	if again.Created {
		t.Error("Expected duplicate name not to create a new item")
	}
	if again.Food.ID != saved.Food.ID || again.Food.CaloriesPer100g != 73 {
		t.Errorf("Expected the existing item back, got %+v", again.Food)
	}

	if _, _, err := server.handleSaveFood(ctx, &mcp.CallToolRequest{}, saveFoodInput{Name: "Greek salad", CaloriesPer100g: 110, ProteinPer100g: 3}); err != nil {
		t.Fatalf("handleSaveFood failed: %v", err)
	}

	_, found, _ := server.handleSearchFoods(ctx, &mcp.CallToolRequest{}, searchFoodsInput{Query: "greek"})
	if found.Count != 2 {
		t.Errorf("Expected 2 matches for greek, got %d", found.Count)
	}
	_, found, _ = server.handleSearchFoods(ctx, &mcp.CallToolRequest{}, searchFoodsInput{Query: "yog"})
	if found.Count != 1 || found.Foods[0].Name != "Greek yogurt" {
		t.Errorf("Expected Greek yogurt, got %+v", found.Foods)
	}
	_, found, _ = server.handleSearchFoods(ctx, &mcp.CallToolRequest{}, searchFoodsInput{Query: "  "})
	if found.Count != 0 || found.Foods == nil {
		t.Errorf("Expected empty non-nil result for blank query, got %+v", found)
	}

	if _, _, err := server.handleDeleteSavedFood(ctx, &mcp.CallToolRequest{}, idInput{ID: saved.Food.ID[:8]}); err != nil {
		t.Fatalf("handleDeleteSavedFood failed: %v", err)
	}
	_, all, _ := server.handleListSavedFoods(ctx, &mcp.CallToolRequest{}, listSavedFoodsInput{})
	if all.Count != 1 || all.Foods[0].Name != "Greek salad" {
		t.Errorf("Expected only Greek salad left, got %+v", all.Foods)
	}
}

func TestHandleGetHistory(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	for _, in := range []addFoodInput{
		{FoodName: "A", Calories: 900, Date: "2024-03-02"},
		{FoodName: "B", Calories: 1500, Date: "2024-03-02"},
		{FoodName: "C", Calories: 1500, Date: "2024-03-01"},
		{FoodName: "D", Calories: 500, Date: "2024-02-28"},
	} {
		if _, _, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, in); err != nil {
			t.Fatalf("handleAddFood failed: %v", err)
		}
	}

	_, output, err := server.handleGetHistory(ctx, &mcp.CallToolRequest{}, historyInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.Year != 2024 || output.Month != 3 {
		t.Errorf("Expected 2024-03, got %d-%d", output.Year, output.Month)
	}
	if len(output.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(output.Days))
	}
	if output.Days[0].Date != "2024-03-01" || output.Days[0].Status != "ok" {
		t.Errorf("Unexpected first day: %+v", output.Days[0])
	}
	if output.Days[1].Calories != 2400 || output.Days[1].Entries != 2 || output.Days[1].Status != "over" {
		t.Errorf("Unexpected second day: %+v", output.Days[1])
	}

	_, output, _ = server.handleGetHistory(ctx, &mcp.CallToolRequest{}, historyInput{Year: 2024, Month: 2})
	if len(output.Days) != 1 || output.Days[0].Status != "low" {
		t.Errorf("Unexpected February history: %+v", output.Days)
	}

	if _, _, err := server.handleGetHistory(ctx, &mcp.CallToolRequest{}, historyInput{Month: 13}); err == nil {
		t.Error("Expected error for month 13")
	}
}

func TestHandleEstimateFood(t *testing.T) {
	est := &models.Estimate{Name: "Banana", CaloriesPer100g: 89, ProteinPer100g: 1.1}
	server, db := setupTestServer(t, tracker.WithEstimator(fakeEstimator{est: est}))
	ctx := context.Background()

	_, output, err := server.handleEstimateFood(ctx, &mcp.CallToolRequest{}, estimateInput{Query: "banana", WeightG: 120, Save: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if output.Calories != 107 || output.Protein != 1.3 {
		t.Errorf("Expected 107 kcal / 1.3 g, got %v / %v", output.Calories, output.Protein)
	}
	if !output.Saved {
		t.Error("Expected estimate to be saved")
	}
	if _, err := db.FindFoodItemByName(ctx, testUser, "banana"); err != nil {
		t.Errorf("Expected Banana in catalog: %v", err)
	}

	if _, _, err := server.handleEstimateFood(ctx, &mcp.CallToolRequest{}, estimateInput{Query: " "}); !errors.Is(err, tracker.ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestHandleEstimateFoodUnavailable(t *testing.T) {
	server, _ := setupTestServer(t)

	_, _, err := server.handleEstimateFood(context.Background(), &mcp.CallToolRequest{}, estimateInput{Query: "banana"})
	if !errors.Is(err, tracker.ErrEstimatorUnavailable) {
		t.Errorf("Expected ErrEstimatorUnavailable, got %v", err)
	}
}

func TestHandleTodayResource(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{FoodName: "Toast", Calories: 90, MealType: "Breakfast"}); err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}
	if _, _, err := server.handleAddFood(ctx, &mcp.CallToolRequest{}, addFoodInput{FoodName: "Old", Calories: 90, Date: "2024-03-01"}); err != nil {
		t.Fatalf("handleAddFood failed: %v", err)
	}

	result, err := server.handleTodayResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Contents) != 1 || result.Contents[0].URI != todayURI {
		t.Fatalf("Unexpected contents: %+v", result.Contents)
	}

	var day tracker.DayView
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &day); err != nil {
		t.Fatalf("Failed to parse resource JSON: %v", err)
	}
	if day.Date != "2024-03-05" || len(day.Entries) != 1 {
		t.Errorf("Expected one entry on 2024-03-05, got %s with %d", day.Date, len(day.Entries))
	}
	if day.Calories.Consumed != 90 {
		t.Errorf("Expected 90 kcal consumed, got %v", day.Calories.Consumed)
	}
}

func TestHandleGoalsAndFoodsResources(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleGoalsResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(result.Contents[0].Text, `"calorie_goal": 2000`) {
		t.Errorf("Expected default calorie goal in %s", result.Contents[0].Text)
	}

	if _, _, err := server.handleSaveFood(ctx, &mcp.CallToolRequest{}, saveFoodInput{Name: "Tofu", CaloriesPer100g: 76, ProteinPer100g: 8}); err != nil {
		t.Fatalf("handleSaveFood failed: %v", err)
	}
	result, err = server.handleFoodsResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var foods struct {
		Foods []models.FoodItem `json:"foods"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &foods); err != nil {
		t.Fatalf("Failed to parse resource JSON: %v", err)
	}
	if foods.Count != 1 || foods.Foods[0].Name != "Tofu" {
		t.Errorf("Expected Tofu, got %+v", foods)
	}
}
