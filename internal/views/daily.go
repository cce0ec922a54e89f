// ABOUTME: DailyLog view state: one day's entries and goals with date navigation.
// ABOUTME: Add, Update, and Delete apply locally first and roll back when the write fails.
package views

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
)

// DailyLog holds the entries and goals shown for one UTC day.
type DailyLog struct {
	mu      sync.Mutex
	svc     *tracker.Service
	userID  string
	date    time.Time
	goals   *models.UserGoals
	entries []*models.FoodLogEntry
}

// NewDailyLog returns a view of today for userID. Call Load to fetch data.
func NewDailyLog(svc *tracker.Service, userID string) *DailyLog {
	return &DailyLog{
		svc:     svc,
		userID:  userID,
		date:    svc.Today(),
		goals:   models.DefaultGoals(userID),
		entries: []*models.FoodLogEntry{},
	}
}

// Date returns the day being viewed.
func (d *DailyLog) Date() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.date
}

// Entries returns a copy of the day's entries in eaten order.
func (d *DailyLog) Entries() []*models.FoodLogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.entries)
}

// Goals returns the goals the view is measured against.
func (d *DailyLog) Goals() *models.UserGoals {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := *d.goals
	return &g
}

// Load fetches the entries for the current date and the user's goals.
func (d *DailyLog) Load(ctx context.Context) {
	d.mu.Lock()
	date := d.date
	d.mu.Unlock()

	entries := d.svc.GetFoodLogs(ctx, d.userID, date)
	goals := d.svc.GetGoals(ctx, d.userID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.date.Equal(date) {
		return
	}
	d.entries = entries
	d.goals = goals
}

// Goto switches to date and loads it.
func (d *DailyLog) Goto(ctx context.Context, date time.Time) {
	d.mu.Lock()
	d.date = aggregate.StartOfDay(date)
	d.entries = []*models.FoodLogEntry{}
	d.mu.Unlock()
	d.Load(ctx)
}

// Prev moves to the previous day.
func (d *DailyLog) Prev(ctx context.Context) {
	d.Goto(ctx, d.Date().AddDate(0, 0, -1))
}

// Next moves to the following day.
func (d *DailyLog) Next(ctx context.Context) {
	d.Goto(ctx, d.Date().AddDate(0, 0, 1))
}

// IsToday reports whether the view shows the current day.
func (d *DailyLog) IsToday() bool {
	return d.Date().Equal(d.svc.Today())
}

// Add shows a provisional entry, stores it, and reloads the day.
// When the write fails the provisional entry is removed and the error returned.
func (d *DailyLog) Add(ctx context.Context, in tracker.EntryInput) (*models.FoodLogEntry, error) {
	if in.EatenAt.IsZero() && in.Date == "" && !d.IsToday() {
		in.Date = aggregate.DateKey(d.Date())
	}

	tempID := uuid.New()
	temp := models.NewFoodLogEntry(d.userID, in.FoodName, in.WeightG, in.Calories, in.Protein).
		WithMealType(models.MealType(in.MealType))
	temp.ID = tempID

	d.mu.Lock()
	d.entries = append(d.entries, temp)
	d.mu.Unlock()

	e, err := d.svc.AddFoodLog(ctx, d.userID, in)
	if err != nil {
		d.mu.Lock()
		d.entries = slices.DeleteFunc(d.entries, func(x *models.FoodLogEntry) bool { return x.ID == tempID })
		d.mu.Unlock()
		return nil, err
	}

	d.Load(ctx)
	return e, nil
}

// Delete hides an entry immediately and restores it if the delete fails.
func (d *DailyLog) Delete(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	idx := d.indexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return tracker.ErrNotFound
	}
	removed := d.entries[idx]
	d.entries = slices.Delete(slices.Clone(d.entries), idx, idx+1)
	d.mu.Unlock()

	if err := d.svc.DeleteFoodLog(ctx, d.userID, id); err != nil {
		d.mu.Lock()
		if d.indexLocked(id) < 0 {
			d.entries = slices.Insert(d.entries, min(idx, len(d.entries)), removed)
		}
		d.mu.Unlock()
		return err
	}
	return nil
}

// Update shows the patched entry immediately and restores the old one if the write fails.
func (d *DailyLog) Update(ctx context.Context, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error) {
	d.mu.Lock()
	idx := d.indexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return nil, tracker.ErrNotFound
	}
	old := d.entries[idx]
	optimistic := *old
	patch.Apply(&optimistic)
	d.entries[idx] = &optimistic
	d.mu.Unlock()

	e, err := d.svc.UpdateFoodLog(ctx, d.userID, id, patch)

	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(id); i >= 0 {
		if err != nil {
			d.entries[i] = old
		} else {
			d.entries[i] = e
		}
	}
	return e, err
}

// SetGoals stores new goals and applies them to the view.
func (d *DailyLog) SetGoals(ctx context.Context, calorieGoal, proteinGoal float64) error {
	g, err := d.svc.UpdateGoals(ctx, d.userID, calorieGoal, proteinGoal)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.goals = g
	d.mu.Unlock()
	return nil
}

// Totals returns the calories and protein logged on the day.
func (d *DailyLog) Totals() (calories, protein float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return aggregate.Totals(d.entries)
}

// Groups returns the day's entries by meal category.
func (d *DailyLog) Groups() []aggregate.MealGroup {
	d.mu.Lock()
	defer d.mu.Unlock()
	return aggregate.GroupByMeal(d.entries)
}

// View returns the day's totals, progress, and meal groups.
func (d *DailyLog) View() *tracker.DayView {
	d.mu.Lock()
	defer d.mu.Unlock()
	goals := *d.goals
	return tracker.BuildDayView(d.date, slices.Clone(d.entries), &goals)
}

func (d *DailyLog) indexLocked(id uuid.UUID) int {
	return slices.IndexFunc(d.entries, func(e *models.FoodLogEntry) bool { return e.ID == id })
}
