// ABOUTME: Food log CRUD operations for SQLite storage.
// ABOUTME: Implements Repository interface methods for food log entries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/models"
)

var foodLogColumns = []string{
	"id", "user_id", "food_name", "weight_g", "calories", "protein",
	"eaten_at", "meal_type", "created_at",
}

type foodLogRow struct {
	ID        string  `db:"id"`
	UserID    string  `db:"user_id"`
	FoodName  string  `db:"food_name"`
	WeightG   float64 `db:"weight_g"`
	Calories  float64 `db:"calories"`
	Protein   float64 `db:"protein"`
	EatenAt   string  `db:"eaten_at"`
	MealType  string  `db:"meal_type"`
	CreatedAt string  `db:"created_at"`
}

func (r foodLogRow) toModel() (*models.FoodLogEntry, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	eatenAt, err := parseTime(r.EatenAt)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &models.FoodLogEntry{
		ID:        id,
		UserID:    r.UserID,
		FoodName:  r.FoodName,
		WeightG:   r.WeightG,
		Calories:  r.Calories,
		Protein:   r.Protein,
		EatenAt:   eatenAt,
		MealType:  models.MealType(r.MealType).OrDefault(),
		CreatedAt: createdAt,
	}, nil
}

// CreateFoodLog stores a new food log entry.
func (d *DB) CreateFoodLog(ctx context.Context, e *models.FoodLogEntry) error {
	query, args, err := d.sb.Insert("food_logs").
		Columns(foodLogColumns...).
		Values(
			e.ID.String(),
			e.UserID,
			e.FoodName,
			e.WeightG,
			e.Calories,
			e.Protein,
			formatTime(e.EatenAt),
			string(e.MealType.OrDefault()),
			formatTime(e.CreatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create food log: %w", err)
	}
	return nil
}

// GetFoodLog retrieves one of the user's entries by ID.
func (d *DB) GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*models.FoodLogEntry, error) {
	query, args, err := d.sb.Select(foodLogColumns...).
		From("food_logs").
		Where(sq.Eq{"id": id.String(), "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row foodLogRow
	if err := d.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get food log: %w", err)
	}
	return row.toModel()
}

// ListFoodLogs returns the user's entries inside the filter window,
// ordered by eaten_at ascending.
func (d *DB) ListFoodLogs(ctx context.Context, userID string, filter LogFilter) ([]*models.FoodLogEntry, error) {
	qb := d.sb.Select(foodLogColumns...).
		From("food_logs").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("eaten_at ASC", "created_at ASC")
	if !filter.From.IsZero() {
		qb = qb.Where(sq.GtOrEq{"eaten_at": formatTime(filter.From)})
	}
	if !filter.To.IsZero() {
		qb = qb.Where(sq.Lt{"eaten_at": formatTime(filter.To)})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []foodLogRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}

	entries := make([]*models.FoodLogEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpdateFoodLog applies patch to one of the user's entries and returns the result.
func (d *DB) UpdateFoodLog(ctx context.Context, userID string, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error) {
	if patch.IsEmpty() {
		return d.GetFoodLog(ctx, userID, id)
	}

	set := map[string]interface{}{}
	if patch.FoodName != nil {
		set["food_name"] = *patch.FoodName
	}
	if patch.WeightG != nil {
		set["weight_g"] = *patch.WeightG
	}
	if patch.Calories != nil {
		set["calories"] = *patch.Calories
	}
	if patch.Protein != nil {
		set["protein"] = *patch.Protein
	}
	if patch.MealType != nil {
		set["meal_type"] = string(patch.MealType.OrDefault())
	}
	if patch.EatenAt != nil {
		set["eaten_at"] = formatTime(*patch.EatenAt)
	}

	query, args, err := d.sb.Update("food_logs").
		SetMap(set).
		Where(sq.Eq{"id": id.String(), "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update food log: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetFoodLog(ctx, userID, id)
}

// DeleteFoodLog removes one of the user's entries.
func (d *DB) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	query, args, err := d.sb.Delete("food_logs").
		Where(sq.Eq{"id": id.String(), "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete food log: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveFoodLogID resolves a full ID or unique prefix to an entry ID.
func (d *DB) ResolveFoodLogID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	return d.resolveID(ctx, "food_logs", userID, idOrPrefix)
}
