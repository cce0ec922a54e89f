// ABOUTME: MCP tool implementations for the caltra food tracker.
// ABOUTME: Provides food log CRUD, goals, the saved food catalog, history, and estimation.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// add_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_food",
		Description: "Log a food eaten, with weight, calories, and protein. Can use a saved food to compute the portion.",
	}, s.handleAddFood)

	// list_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_food",
		Description: "List the foods logged on a day with totals and goal progress",
	}, s.handleListFood)

	// update_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_food",
		Description: "Change fields of a logged food by ID or ID prefix",
	}, s.handleUpdateFood)

	// delete_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_food",
		Description: "Delete a logged food by ID or ID prefix",
	}, s.handleDeleteFood)

	// get_goals
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_goals",
		Description: "Get the daily calorie and protein goals",
	}, s.handleGetGoals)

	// set_goals
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_goals",
		Description: "Set the daily calorie and protein goals",
	}, s.handleSetGoals)

	// search_foods
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_foods",
		Description: "Search saved foods by name",
	}, s.handleSearchFoods)

	// list_saved_foods
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_saved_foods",
		Description: "List every saved food with its per-100g nutrition",
	}, s.handleListSavedFoods)

	// save_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "save_food",
		Description: "Save a food's per-100g nutrition for reuse. Existing names are kept as they are.",
	}, s.handleSaveFood)

	// delete_saved_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_saved_food",
		Description: "Delete a saved food by ID or ID prefix",
	}, s.handleDeleteSavedFood)

	// get_history
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_history",
		Description: "Get daily calorie and protein totals for a month",
	}, s.handleGetHistory)

	// estimate_food
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "estimate_food",
		Description: "Estimate calories and protein per 100g for a food description",
	}, s.handleEstimateFood)
}

// Tool input/output types

type addFoodInput struct {
	FoodName  string  `json:"food_name,omitempty" jsonschema:"Name of the food eaten"`
	WeightG   float64 `json:"weight_g,omitempty" jsonschema:"Weight eaten in grams"`
	Calories  float64 `json:"calories,omitempty" jsonschema:"Calories in the portion"`
	Protein   float64 `json:"protein,omitempty" jsonschema:"Protein in the portion, in grams"`
	MealType  string  `json:"meal_type,omitempty" jsonschema:"Meal category such as Breakfast, Dinner, Supper, or Snack (default Snack); other names are kept as given"`
	EatenAt   string  `json:"eaten_at,omitempty" jsonschema:"When it was eaten (ISO 8601), defaults to now"`
	Date      string  `json:"date,omitempty" jsonschema:"Day eaten as YYYY-MM-DD, used when eaten_at is empty"`
	SavedFood string  `json:"saved_food,omitempty" jsonschema:"Name of a saved food; calories and protein are computed from weight_g"`
}

type entryOutput struct {
	ID       string  `json:"id"`
	FoodName string  `json:"food_name"`
	WeightG  float64 `json:"weight_g"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	MealType string  `json:"meal_type"`
	EatenAt  string  `json:"eaten_at"`
}

type addFoodOutput struct {
	Entry   entryOutput `json:"entry"`
	Message string      `json:"message"`
}

type listFoodInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD, defaults to today"`
}

type listFoodOutput struct {
	Date          string        `json:"date"`
	Entries       []entryOutput `json:"entries"`
	TotalCalories float64       `json:"total_calories"`
	TotalProtein  float64       `json:"total_protein"`
	CalorieGoal   float64       `json:"calorie_goal"`
	ProteinGoal   float64       `json:"protein_goal"`
	Status        string        `json:"status"`
}

type updateFoodInput struct {
	ID       string   `json:"id" jsonschema:"Entry ID or prefix"`
	FoodName *string  `json:"food_name,omitempty" jsonschema:"New food name"`
	WeightG  *float64 `json:"weight_g,omitempty" jsonschema:"New weight in grams"`
	Calories *float64 `json:"calories,omitempty" jsonschema:"New calories"`
	Protein  *float64 `json:"protein,omitempty" jsonschema:"New protein in grams"`
	MealType *string  `json:"meal_type,omitempty" jsonschema:"New meal type"`
}

type idInput struct {
	ID string `json:"id" jsonschema:"ID or ID prefix"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type getGoalsInput struct{}

type goalsOutput struct {
	CalorieGoal float64 `json:"calorie_goal"`
	ProteinGoal float64 `json:"protein_goal"`
	Message     string  `json:"message"`
}

type setGoalsInput struct {
	CalorieGoal float64 `json:"calorie_goal" jsonschema:"Daily calorie goal in kcal"`
	ProteinGoal float64 `json:"protein_goal" jsonschema:"Daily protein goal in grams"`
}

type searchFoodsInput struct {
	Query string `json:"query" jsonschema:"Part of the food name"`
}

type listSavedFoodsInput struct{}

type foodOutput struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	ServingSize     float64 `json:"serving_size"`
	Unit            string  `json:"unit"`
}

type foodsOutput struct {
	Foods []foodOutput `json:"foods"`
	Count int          `json:"count"`
}

type saveFoodInput struct {
	Name            string  `json:"name" jsonschema:"Food name, unique ignoring case"`
	CaloriesPer100g float64 `json:"calories_per_100g" jsonschema:"Calories per 100g"`
	ProteinPer100g  float64 `json:"protein_per_100g" jsonschema:"Protein per 100g in grams"`
	ServingSize     float64 `json:"serving_size,omitempty" jsonschema:"Typical serving size (default 100)"`
	Unit            string  `json:"unit,omitempty" jsonschema:"Serving unit (default g)"`
}

type saveFoodOutput struct {
	Food    foodOutput `json:"food"`
	Created bool       `json:"created"`
	Message string     `json:"message"`
}

type historyInput struct {
	Year  int `json:"year,omitempty" jsonschema:"Year, defaults to the current year"`
	Month int `json:"month,omitempty" jsonschema:"Month 1-12, defaults to the current month"`
}

type daySummary struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Entries  int     `json:"entries"`
	Status   string  `json:"status"`
}

type historyOutput struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Days  []daySummary `json:"days"`
}

type estimateInput struct {
	Query   string  `json:"query" jsonschema:"Food description, e.g. grilled chicken breast"`
	WeightG float64 `json:"weight_g,omitempty" jsonschema:"Portion weight in grams to scale the estimate to"`
	Save    bool    `json:"save,omitempty" jsonschema:"Also save the estimate to the food catalog"`
}

type estimateOutput struct {
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	WeightG         float64 `json:"weight_g,omitempty"`
	Calories        float64 `json:"calories,omitempty"`
	Protein         float64 `json:"protein,omitempty"`
	Saved           bool    `json:"saved"`
}

func toEntryOutput(e *models.FoodLogEntry) entryOutput {
	return entryOutput{
		ID:       e.ID.String(),
		FoodName: e.FoodName,
		WeightG:  e.WeightG,
		Calories: e.Calories,
		Protein:  e.Protein,
		MealType: string(e.MealType),
		EatenAt:  e.EatenAt.Format(time.RFC3339),
	}
}

func toFoodOutput(f *models.FoodItem) foodOutput {
	return foodOutput{
		ID:              f.ID.String(),
		Name:            f.Name,
		CaloriesPer100g: f.CaloriesPer100g,
		ProteinPer100g:  f.ProteinPer100g,
		ServingSize:     f.ServingSize,
		Unit:            f.Unit,
	}
}

func toFoodsOutput(items []*models.FoodItem) foodsOutput {
	out := foodsOutput{Foods: make([]foodOutput, 0, len(items)), Count: len(items)}
	for _, f := range items {
		out.Foods = append(out.Foods, toFoodOutput(f))
	}
	return out
}

// parseEatenAt accepts RFC 3339 or "YYYY-MM-DD HH:MM" in UTC.
func parseEatenAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid eaten_at %q: use ISO 8601 or YYYY-MM-DD HH:MM", s)
	}
	return t, nil
}

func (s *Server) dateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		return s.tracker.Today(), nil
	}
	d, err := aggregate.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	return d, nil
}

func describeLookup(kind, id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s not found: %s", kind, id)
	case errors.Is(err, storage.ErrAmbiguous):
		return fmt.Errorf("%s prefix %s matches several records, use more characters", kind, id)
	}
	return err
}

// Tool handlers

func (s *Server) handleAddFood(ctx context.Context, req *mcp.CallToolRequest, input addFoodInput) (*mcp.CallToolResult, addFoodOutput, error) {
	in := tracker.EntryInput{
		FoodName: input.FoodName,
		WeightG:  input.WeightG,
		Calories: input.Calories,
		Protein:  input.Protein,
		MealType: input.MealType,
		Date:     input.Date,
	}

	if input.SavedFood != "" {
		item, err := s.tracker.Repository().FindFoodItemByName(ctx, s.userID, input.SavedFood)
		if err != nil {
			return nil, addFoodOutput{}, describeLookup("saved food", input.SavedFood, err)
		}
		if in.WeightG <= 0 {
			in.WeightG = item.ServingSize
		}
		in.Calories, in.Protein = item.Portion(in.WeightG)
		if in.FoodName == "" {
			in.FoodName = item.Name
		}
	}

	if input.EatenAt != "" {
		t, err := parseEatenAt(input.EatenAt)
		if err != nil {
			return nil, addFoodOutput{}, err
		}
		in.EatenAt = t
	}

	e, err := s.tracker.AddFoodLog(ctx, s.userID, in)
	if err != nil {
		return nil, addFoodOutput{}, fmt.Errorf("failed to add food: %w", err)
	}

	return nil, addFoodOutput{
		Entry: toEntryOutput(e),
		Message: fmt.Sprintf("Logged %s: %.0f kcal, %.1f g protein (ID: %s)",
			e.FoodName, e.Calories, e.Protein, e.ID.String()[:8]),
	}, nil
}

func (s *Server) handleListFood(ctx context.Context, req *mcp.CallToolRequest, input listFoodInput) (*mcp.CallToolResult, listFoodOutput, error) {
	date, err := s.dateOrToday(input.Date)
	if err != nil {
		return nil, listFoodOutput{}, err
	}

	day := s.tracker.GetDay(ctx, s.userID, date)
	out := listFoodOutput{
		Date:          day.Date,
		Entries:       make([]entryOutput, 0, len(day.Entries)),
		TotalCalories: day.Calories.Consumed,
		TotalProtein:  day.Protein.Consumed,
		CalorieGoal:   day.Goals.CalorieGoal,
		ProteinGoal:   day.Goals.ProteinGoal,
		Status:        string(day.Status),
	}
	for _, e := range day.Entries {
		out.Entries = append(out.Entries, toEntryOutput(e))
	}
	return nil, out, nil
}

func (s *Server) handleUpdateFood(ctx context.Context, req *mcp.CallToolRequest, input updateFoodInput) (*mcp.CallToolResult, addFoodOutput, error) {
	id, err := s.tracker.ResolveFoodLogID(ctx, s.userID, input.ID)
	if err != nil {
		return nil, addFoodOutput{}, describeLookup("food entry", input.ID, err)
	}

	patch := models.FoodLogPatch{
		FoodName: input.FoodName,
		WeightG:  input.WeightG,
		Calories: input.Calories,
		Protein:  input.Protein,
	}
	if input.MealType != nil {
		mt := models.MealType(*input.MealType)
		patch.MealType = &mt
	}
	if patch.IsEmpty() {
		return nil, addFoodOutput{}, errors.New("nothing to update")
	}

	e, err := s.tracker.UpdateFoodLog(ctx, s.userID, id, patch)
	if err != nil {
		return nil, addFoodOutput{}, fmt.Errorf("failed to update food: %w", err)
	}
	return nil, addFoodOutput{
		Entry:   toEntryOutput(e),
		Message: fmt.Sprintf("Updated %s (ID: %s)", e.FoodName, e.ID.String()[:8]),
	}, nil
}

func (s *Server) handleDeleteFood(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, simpleOutput, error) {
	id, err := s.tracker.ResolveFoodLogID(ctx, s.userID, input.ID)
	if err != nil {
		return nil, simpleOutput{}, describeLookup("food entry", input.ID, err)
	}
	if err := s.tracker.DeleteFoodLog(ctx, s.userID, id); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete food: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted food entry: %s", id.String()[:8]),
	}, nil
}

func (s *Server) handleGetGoals(ctx context.Context, req *mcp.CallToolRequest, input getGoalsInput) (*mcp.CallToolResult, goalsOutput, error) {
	g := s.tracker.GetGoals(ctx, s.userID)
	return nil, goalsOutput{
		CalorieGoal: g.CalorieGoal,
		ProteinGoal: g.ProteinGoal,
		Message:     fmt.Sprintf("Daily goals: %.0f kcal, %.0f g protein", g.CalorieGoal, g.ProteinGoal),
	}, nil
}

func (s *Server) handleSetGoals(ctx context.Context, req *mcp.CallToolRequest, input setGoalsInput) (*mcp.CallToolResult, goalsOutput, error) {
	g, err := s.tracker.UpdateGoals(ctx, s.userID, input.CalorieGoal, input.ProteinGoal)
	if err != nil {
		return nil, goalsOutput{}, fmt.Errorf("failed to set goals: %w", err)
	}
	return nil, goalsOutput{
		CalorieGoal: g.CalorieGoal,
		ProteinGoal: g.ProteinGoal,
		Message:     fmt.Sprintf("Goals set: %.0f kcal, %.0f g protein", g.CalorieGoal, g.ProteinGoal),
	}, nil
}

func (s *Server) handleSearchFoods(ctx context.Context, req *mcp.CallToolRequest, input searchFoodsInput) (*mcp.CallToolResult, foodsOutput, error) {
	return nil, toFoodsOutput(s.tracker.SearchFoodItems(ctx, s.userID, input.Query)), nil
}

func (s *Server) handleListSavedFoods(ctx context.Context, req *mcp.CallToolRequest, input listSavedFoodsInput) (*mcp.CallToolResult, foodsOutput, error) {
	return nil, toFoodsOutput(s.tracker.GetFoodItems(ctx, s.userID)), nil
}

func (s *Server) handleSaveFood(ctx context.Context, req *mcp.CallToolRequest, input saveFoodInput) (*mcp.CallToolResult, saveFoodOutput, error) {
	item := models.NewFoodItem(s.userID, input.Name, input.CaloriesPer100g, input.ProteinPer100g).
		WithServing(input.ServingSize, input.Unit)

	created, err := s.tracker.SaveFoodItem(ctx, s.userID, item)
	if err != nil {
		return nil, saveFoodOutput{}, fmt.Errorf("failed to save food: %w", err)
	}

	msg := fmt.Sprintf("Saved %s (ID: %s)", item.Name, item.ID.String()[:8])
	if !created {
		existing, err := s.tracker.Repository().FindFoodItemByName(ctx, s.userID, item.Name)
		if err == nil {
			item = existing
		}
		msg = fmt.Sprintf("%s is already saved (ID: %s)", item.Name, item.ID.String()[:8])
	}

	return nil, saveFoodOutput{Food: toFoodOutput(item), Created: created, Message: msg}, nil
}

func (s *Server) handleDeleteSavedFood(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, simpleOutput, error) {
	id, err := s.tracker.ResolveFoodItemID(ctx, s.userID, input.ID)
	if err != nil {
		return nil, simpleOutput{}, describeLookup("saved food", input.ID, err)
	}
	if err := s.tracker.DeleteFoodItem(ctx, s.userID, id); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete saved food: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted saved food: %s", id.String()[:8]),
	}, nil
}

func (s *Server) handleGetHistory(ctx context.Context, req *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, historyOutput, error) {
	today := s.tracker.Today()
	year, month := input.Year, input.Month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if month < 1 || month > 12 {
		return nil, historyOutput{}, fmt.Errorf("month must be 1-12, got %d", month)
	}

	goals := s.tracker.GetGoals(ctx, s.userID)
	days := s.tracker.GetHistory(ctx, s.userID, year, time.Month(month))

	out := historyOutput{Year: year, Month: month, Days: make([]daySummary, 0, len(days))}
	for _, key := range aggregate.SortedKeys(days) {
		b := days[key]
		out.Days = append(out.Days, daySummary{
			Date:     b.Date,
			Calories: b.TotalCalories,
			Protein:  b.TotalProtein,
			Entries:  len(b.Entries),
			Status:   string(aggregate.StatusFor(b.TotalCalories, goals.CalorieGoal)),
		})
	}
	return nil, out, nil
}

func (s *Server) handleEstimateFood(ctx context.Context, req *mcp.CallToolRequest, input estimateInput) (*mcp.CallToolResult, estimateOutput, error) {
	est, err := s.tracker.AnalyzeFood(ctx, input.Query)
	if err != nil {
		return nil, estimateOutput{}, fmt.Errorf("failed to estimate food: %w", err)
	}

	out := estimateOutput{
		Name:            est.Name,
		CaloriesPer100g: est.CaloriesPer100g,
		ProteinPer100g:  est.ProteinPer100g,
	}
	if input.WeightG > 0 {
		out.WeightG = input.WeightG
		out.Calories = models.ScaleCalories(est.CaloriesPer100g, input.WeightG)
		out.Protein = models.ScaleProtein(est.ProteinPer100g, input.WeightG)
	}
	if input.Save {
		created, err := s.tracker.SaveFoodItem(ctx, s.userID, est.ToFoodItem(s.userID))
		if err != nil {
			return nil, estimateOutput{}, fmt.Errorf("failed to save estimate: %w", err)
		}
		out.Saved = created
	}
	return nil, out, nil
}
