// ABOUTME: Tracker service: the per-user actions behind the HTTP API, CLI, and MCP tools.
// ABOUTME: Reads degrade to empty or default results; writes return errors.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
)

// Estimator estimates per-100 g nutrition for a food description.
type Estimator interface {
	Estimate(ctx context.Context, query string) (*models.Estimate, error)
}

// Service implements the tracker actions on top of a Repository.
type Service struct {
	repo storage.Repository
	est  Estimator
	log  *log.Logger
	now  func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithEstimator sets the nutrition estimator used by AnalyzeFood.
func WithEstimator(e Estimator) Option {
	return func(s *Service) { s.est = e }
}

// WithLogger sets the logger used for degraded reads and failed writes.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by repo.
func New(repo storage.Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  logging.Tracker(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the underlying store for export and migration.
func (s *Service) Repository() storage.Repository {
	return s.repo
}

// Today returns the current UTC date at midnight.
func (s *Service) Today() time.Time {
	return aggregate.StartOfDay(s.now())
}

// EntryInput describes a food log entry to add.
// When EatenAt is zero, Date (YYYY-MM-DD) is stored as midnight UTC;
// when both are empty the entry is eaten now.
type EntryInput struct {
	FoodName string    `json:"food_name"`
	WeightG  float64   `json:"weight_g"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	MealType string    `json:"meal_type"`
	EatenAt  time.Time `json:"eaten_at"`
	Date     string    `json:"date"`
}

// DayView is everything a daily log screen shows.
type DayView struct {
	Date     string                  `json:"date"`
	Entries  []*models.FoodLogEntry  `json:"entries"`
	Calories aggregate.Progress      `json:"calories"`
	Protein  aggregate.Progress      `json:"protein"`
	Status   aggregate.CalorieStatus `json:"status"`
	Meals    []aggregate.MealGroup   `json:"meals"`
	Goals    *models.UserGoals       `json:"goals"`
}

func (s *Service) writeErr(op, userID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAmbiguous) {
		return err
	}
	s.log.Error(op, "user", userID, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

// GetFoodLogs returns the user's entries eaten on date's UTC calendar day.
func (s *Service) GetFoodLogs(ctx context.Context, userID string, date time.Time) []*models.FoodLogEntry {
	if userID == "" {
		return []*models.FoodLogEntry{}
	}
	from, to := aggregate.DayRange(date)
	entries, err := s.repo.ListFoodLogs(ctx, userID, storage.LogFilter{From: from, To: to})
	if err != nil {
		s.log.Error("get food logs", "user", userID, "date", aggregate.DateKey(date), "err", err)
		return []*models.FoodLogEntry{}
	}
	return entries
}

// AddFoodLog validates and stores a new entry.
func (s *Service) AddFoodLog(ctx context.Context, userID string, in EntryInput) (*models.FoodLogEntry, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	name := strings.TrimSpace(in.FoodName)
	if name == "" {
		return nil, fmt.Errorf("%w: food name is required", ErrInvalidInput)
	}
	if err := checkAmounts(in.WeightG, in.Calories, in.Protein); err != nil {
		return nil, err
	}

	e := models.NewFoodLogEntry(userID, name, in.WeightG, in.Calories, in.Protein).
		WithMealType(models.MealType(in.MealType))
	e.CreatedAt = s.now().UTC()
	switch {
	case !in.EatenAt.IsZero():
		e.WithEatenAt(in.EatenAt)
	case strings.TrimSpace(in.Date) != "":
		day, err := aggregate.ParseDate(strings.TrimSpace(in.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		e.WithEatenAt(day)
	default:
		e.WithEatenAt(e.CreatedAt)
	}

	if err := s.repo.CreateFoodLog(ctx, e); err != nil {
		return nil, s.writeErr("add food log", userID, err)
	}
	return e, nil
}

// UpdateFoodLog applies a partial update to one of the user's entries.
func (s *Service) UpdateFoodLog(ctx context.Context, userID string, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if patch.FoodName != nil {
		name := strings.TrimSpace(*patch.FoodName)
		if name == "" {
			return nil, fmt.Errorf("%w: food name cannot be empty", ErrInvalidInput)
		}
		patch.FoodName = &name
	}
	for _, v := range []*float64{patch.WeightG, patch.Calories, patch.Protein} {
		if v != nil {
			if err := checkAmounts(*v); err != nil {
				return nil, err
			}
		}
	}
	if patch.MealType != nil {
		mt := patch.MealType.OrDefault()
		patch.MealType = &mt
	}

	e, err := s.repo.UpdateFoodLog(ctx, userID, id, patch)
	if err != nil {
		return nil, s.writeErr("update food log", userID, err)
	}
	return e, nil
}

// DeleteFoodLog removes one of the user's entries.
func (s *Service) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if err := s.repo.DeleteFoodLog(ctx, userID, id); err != nil {
		return s.writeErr("delete food log", userID, err)
	}
	return nil
}

// ResolveFoodLogID turns a full ID or unique prefix into an entry ID.
func (s *Service) ResolveFoodLogID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, ErrNotAuthenticated
	}
	return s.repo.ResolveFoodLogID(ctx, userID, idOrPrefix)
}

// GetGoals returns the user's goals, or the defaults when none are stored.
func (s *Service) GetGoals(ctx context.Context, userID string) *models.UserGoals {
	if userID == "" {
		return models.DefaultGoals(userID)
	}
	g, err := s.repo.GetGoals(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("get goals", "user", userID, "err", err)
		}
		return models.DefaultGoals(userID)
	}
	return g
}

// UpdateGoals stores new daily goals for the user.
func (s *Service) UpdateGoals(ctx context.Context, userID string, calorieGoal, proteinGoal float64) (*models.UserGoals, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if !(calorieGoal > 0) || !(proteinGoal > 0) || math.IsInf(calorieGoal, 0) || math.IsInf(proteinGoal, 0) {
		return nil, fmt.Errorf("%w: goals must be positive", ErrInvalidInput)
	}
	g := models.NewUserGoals(userID, calorieGoal, proteinGoal)
	g.UpdatedAt = s.now().UTC()
	if err := s.repo.UpsertGoals(ctx, g); err != nil {
		return nil, s.writeErr("update goals", userID, err)
	}
	return g, nil
}

// SearchFoodItems returns saved foods whose name contains query.
func (s *Service) SearchFoodItems(ctx context.Context, userID, query string) []*models.FoodItem {
	query = strings.TrimSpace(query)
	if userID == "" || query == "" {
		return []*models.FoodItem{}
	}
	items, err := s.repo.SearchFoodItems(ctx, userID, query)
	if err != nil {
		s.log.Error("search food items", "user", userID, "query", query, "err", err)
		return []*models.FoodItem{}
	}
	return items
}

// SaveFoodItem caches a food in the user's catalog unless the name is already
// saved. It reports whether a new item was stored.
func (s *Service) SaveFoodItem(ctx context.Context, userID string, item *models.FoodItem) (bool, error) {
	if userID == "" {
		return false, ErrNotAuthenticated
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return false, fmt.Errorf("%w: food name is required", ErrInvalidInput)
	}
	if err := checkAmounts(item.CaloriesPer100g, item.ProteinPer100g, item.ServingSize); err != nil {
		return false, err
	}
	item.UserID = userID
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	item.ApplyDefaults()

	created, err := s.repo.SaveFoodItem(ctx, item)
	if err != nil {
		return false, s.writeErr("save food item", userID, err)
	}
	return created, nil
}

// DeleteFoodItem removes one of the user's saved foods.
func (s *Service) DeleteFoodItem(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if err := s.repo.DeleteFoodItem(ctx, userID, id); err != nil {
		return s.writeErr("delete food item", userID, err)
	}
	return nil
}

// ResolveFoodItemID turns a full ID or unique prefix into a saved food ID.
func (s *Service) ResolveFoodItemID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, ErrNotAuthenticated
	}
	return s.repo.ResolveFoodItemID(ctx, userID, idOrPrefix)
}

// GetFoodItems returns all of the user's saved foods.
func (s *Service) GetFoodItems(ctx context.Context, userID string) []*models.FoodItem {
	if userID == "" {
		return []*models.FoodItem{}
	}
	items, err := s.repo.ListFoodItems(ctx, userID)
	if err != nil {
		s.log.Error("get food items", "user", userID, "err", err)
		return []*models.FoodItem{}
	}
	return items
}

// GetHistory returns the user's day buckets for a calendar month.
func (s *Service) GetHistory(ctx context.Context, userID string, year int, month time.Month) map[string]*aggregate.DayBucket {
	if userID == "" {
		return map[string]*aggregate.DayBucket{}
	}
	from, to := aggregate.MonthRange(year, month)
	entries, err := s.repo.ListFoodLogs(ctx, userID, storage.LogFilter{From: from, To: to})
	if err != nil {
		s.log.Error("get history", "user", userID, "year", year, "month", int(month), "err", err)
		return map[string]*aggregate.DayBucket{}
	}
	return aggregate.GroupByDay(entries)
}

// AnalyzeFood estimates per-100 g nutrition for a food description.
func (s *Service) AnalyzeFood(ctx context.Context, query string) (*models.Estimate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.est == nil {
		return nil, ErrEstimatorUnavailable
	}
	est, err := s.est.Estimate(ctx, query)
	if err != nil {
		s.log.Warn("analyze food", "query", query, "err", err)
		return nil, fmt.Errorf("analyze food: %w", err)
	}
	return est, nil
}

// GetDay assembles the daily log view for date.
func (s *Service) GetDay(ctx context.Context, userID string, date time.Time) *DayView {
	entries := s.GetFoodLogs(ctx, userID, date)
	goals := s.GetGoals(ctx, userID)
	return BuildDayView(date, entries, goals)
}

// BuildDayView computes totals, progress, and meal groups for a day's entries.
func BuildDayView(date time.Time, entries []*models.FoodLogEntry, goals *models.UserGoals) *DayView {
	cal, prot := aggregate.Totals(entries)
	return &DayView{
		Date:     aggregate.DateKey(date),
		Entries:  entries,
		Calories: aggregate.NewProgress(cal, goals.CalorieGoal),
		Protein:  aggregate.NewProgress(prot, goals.ProteinGoal),
		Status:   aggregate.StatusFor(cal, goals.CalorieGoal),
		Meals:    aggregate.GroupByMeal(entries),
		Goals:    goals,
	}
}

func checkAmounts(values ...float64) error {
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: amounts must be zero or positive", ErrInvalidInput)
		}
	}
	return nil
}
