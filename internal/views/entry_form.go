// ABOUTME: Entry form state: debounced saved-food search, estimation, and manual fallback.
// ABOUTME: Build turns the form into a log entry plus the catalog item to remember.
package views

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
)

const (
	// SearchDelay is how long typing must pause before saved foods are searched.
	SearchDelay = 300 * time.Millisecond
	// MinQueryLength is the shortest query that triggers a search.
	MinQueryLength = 2
	// DefaultWeight is the portion weight in grams a fresh form starts with.
	DefaultWeight = 100
)

var (
	// ErrNothingToAdd is returned by Build before a food is selected or typed in.
	ErrNothingToAdd = errors.New("select a food, analyze it, or enter values manually")
)

// FormOption customises an EntryForm.
type FormOption func(*EntryForm)

// WithSearchDelay overrides the search debounce delay.
func WithSearchDelay(d time.Duration) FormOption {
	return func(f *EntryForm) { f.debounce = NewDebouncer(d) }
}

// OnSuggestions registers a callback run after each completed search.
func OnSuggestions(fn func([]*models.FoodItem)) FormOption {
	return func(f *EntryForm) { f.onSuggestions = fn }
}

// EntryForm is the add-food form.
type EntryForm struct {
	mu            sync.Mutex
	svc           *tracker.Service
	userID        string
	debounce      *Debouncer
	onSuggestions func([]*models.FoodItem)

	query          string
	suggestions    []*models.FoodItem
	food           *models.FoodItem
	weight         float64
	mealType       models.MealType
	manual         bool
	manualCalories float64
	manualProtein  float64
	lastErr        error
}

// NewEntryForm returns an empty form for userID.
func NewEntryForm(svc *tracker.Service, userID string, opts ...FormOption) *EntryForm {
	f := &EntryForm{
		svc:      svc,
		userID:   userID,
		debounce: NewDebouncer(SearchDelay),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.resetLocked()
	return f
}

// Reset restores the form defaults.
func (f *EntryForm) Reset() {
	f.debounce.Cancel()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *EntryForm) resetLocked() {
	f.query = ""
	f.suggestions = nil
	f.food = nil
	f.weight = DefaultWeight
	f.mealType = models.MealSnack
	f.manual = false
	f.manualCalories = 0
	f.manualProtein = 0
	f.lastErr = nil
}

// SetQuery updates the food text. Queries of at least MinQueryLength characters
// search saved foods once typing pauses; a newer query supersedes a pending one.
func (f *EntryForm) SetQuery(ctx context.Context, q string) {
	f.mu.Lock()
	f.query = q
	f.food = nil
	short := len([]rune(strings.TrimSpace(q))) < MinQueryLength
	if short {
		f.suggestions = nil
	}
	f.mu.Unlock()

	if short {
		f.debounce.Cancel()
		return
	}

	f.debounce.Trigger(ctx, func(ctx context.Context) {
		items := f.svc.SearchFoodItems(ctx, f.userID, q)
		if ctx.Err() != nil {
			return
		}

		f.mu.Lock()
		if f.query != q {
			f.mu.Unlock()
			return
		}
		f.suggestions = items
		cb := f.onSuggestions
		f.mu.Unlock()

		if cb != nil {
			cb(items)
		}
	})
}

// SetText updates the food text without searching saved foods.
func (f *EntryForm) SetText(q string) {
	f.debounce.Cancel()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
	f.food = nil
	f.suggestions = nil
}

// Query returns the current food text.
func (f *EntryForm) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Suggestions returns the latest saved-food matches.
func (f *EntryForm) Suggestions() []*models.FoodItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suggestions
}

// Select uses a saved food as the form's food.
func (f *EntryForm) Select(item *models.FoodItem) {
	f.debounce.Cancel()
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *item
	f.food = &copied
	f.query = item.Name
	f.suggestions = nil
	f.manual = false
	f.lastErr = nil
}

// Analyze estimates nutrition for the query. On failure the form switches to
// manual mode and the error is returned.
func (f *EntryForm) Analyze(ctx context.Context) error {
	f.debounce.Cancel()
	f.mu.Lock()
	query := strings.TrimSpace(f.query)
	f.food = nil
	f.manual = false
	f.suggestions = nil
	f.mu.Unlock()

	if query == "" {
		return tracker.ErrEmptyQuery
	}

	est, err := f.svc.AnalyzeFood(ctx, query)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.manual = true
		f.lastErr = err
		return err
	}
	f.food = est.ToFoodItem(f.userID)
	f.lastErr = nil
	return nil
}

// Food returns the selected or estimated food, or nil.
func (f *EntryForm) Food() *models.FoodItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.food
}

// Err returns the error that switched the form to manual mode.
func (f *EntryForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Manual reports whether the form takes typed totals instead of a food.
func (f *EntryForm) Manual() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.manual
}

// SetManualMode switches manual entry on or off.
func (f *EntryForm) SetManualMode(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = on
}

// SetManual sets the typed calorie and protein totals.
func (f *EntryForm) SetManual(calories, protein float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = true
	f.manualCalories = calories
	f.manualProtein = protein
}

// SetWeight sets the portion weight in grams.
func (f *EntryForm) SetWeight(weightG float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weight = weightG
}

// Weight returns the portion weight in grams.
func (f *EntryForm) Weight() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.weight
}

// SetMealType sets the meal category. Blank values become Snack.
func (f *EntryForm) SetMealType(mt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mealType = models.MealType(mt).OrDefault()
}

// MealType returns the meal category.
func (f *EntryForm) MealType() models.MealType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mealType
}

// Preview returns the calories and protein the entry would be logged with.
func (f *EntryForm) Preview() (calories, protein float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.manual:
		return f.manualCalories, f.manualProtein
	case f.food != nil:
		return f.food.Portion(f.weight)
	}
	return 0, 0
}

// Build returns the entry to log and the catalog item to save alongside it.
// Manual totals are cached per 100 g with the portion weight as serving size.
func (f *EntryForm) Build() (tracker.EntryInput, *models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.weight < 0 || math.IsNaN(f.weight) {
		return tracker.EntryInput{}, nil, fmt.Errorf("%w: weight must be zero or positive", tracker.ErrInvalidInput)
	}

	if f.manual {
		name := strings.TrimSpace(f.query)
		if name == "" {
			return tracker.EntryInput{}, nil, ErrNothingToAdd
		}
		in := tracker.EntryInput{
			FoodName: name,
			WeightG:  f.weight,
			Calories: math.Round(f.manualCalories),
			Protein:  math.Round(f.manualProtein*10) / 10,
			MealType: string(f.mealType),
		}
		serving := f.weight
		if serving <= 0 {
			serving = DefaultWeight
		}
		item := models.NewFoodItem(f.userID, name,
			math.Round(in.Calories/serving*100*10)/10,
			math.Round(in.Protein/serving*100*10)/10).
			WithServing(serving, models.DefaultUnit)
		return in, item, nil
	}

	if f.food == nil {
		return tracker.EntryInput{}, nil, ErrNothingToAdd
	}

	calories, protein := f.food.Portion(f.weight)
	in := tracker.EntryInput{
		FoodName: f.food.Name,
		WeightG:  f.weight,
		Calories: calories,
		Protein:  protein,
		MealType: string(f.mealType),
	}
	item := models.NewFoodItem(f.userID, f.food.Name, f.food.CaloriesPer100g, f.food.ProteinPer100g)
	return in, item, nil
}

// Submit logs the built entry through the daily log, saves the catalog item,
// and resets the form.
func (f *EntryForm) Submit(ctx context.Context, day *DailyLog) (*models.FoodLogEntry, error) {
	in, item, err := f.Build()
	if err != nil {
		return nil, err
	}

	e, err := day.Add(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := f.svc.SaveFoodItem(ctx, f.userID, item); err != nil {
		return e, fmt.Errorf("save food: %w", err)
	}

	f.Reset()
	return e, nil
}
