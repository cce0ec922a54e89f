// ABOUTME: Saved food catalog operations for SQLite storage.
// ABOUTME: Names are unique per user, compared through a lower-cased name_key column.
package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/models"
)

var foodItemColumns = []string{
	"id", "user_id", "name", "calories_per_100g", "protein_per_100g",
	"serving_size", "unit", "created_at",
}

type foodItemRow struct {
	ID              string  `db:"id"`
	UserID          string  `db:"user_id"`
	Name            string  `db:"name"`
	CaloriesPer100g float64 `db:"calories_per_100g"`
	ProteinPer100g  float64 `db:"protein_per_100g"`
	ServingSize     float64 `db:"serving_size"`
	Unit            string  `db:"unit"`
	CreatedAt       string  `db:"created_at"`
}

func (r foodItemRow) toModel() (*models.FoodItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	item := &models.FoodItem{
		ID:              id,
		UserID:          r.UserID,
		Name:            r.Name,
		CaloriesPer100g: r.CaloriesPer100g,
		ProteinPer100g:  r.ProteinPer100g,
		ServingSize:     r.ServingSize,
		Unit:            r.Unit,
		CreatedAt:       createdAt,
	}
	item.ApplyDefaults()
	return item, nil
}

func (d *DB) selectFoodItems(ctx context.Context, qb sq.SelectBuilder) ([]*models.FoodItem, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []foodItemRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}

	items := make([]*models.FoodItem, 0, len(rows))
	for _, r := range rows {
		item, err := r.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveFoodItem inserts item unless the user already has a food with the
// same name (case-insensitive). It reports whether a row was created.
func (d *DB) SaveFoodItem(ctx context.Context, item *models.FoodItem) (bool, error) {
	item.ApplyDefaults()
	query, args, err := d.sb.Insert("food_items").
		Columns(append(foodItemColumns, "name_key")...).
		Values(
			item.ID.String(),
			item.UserID,
			item.Name,
			item.CaloriesPer100g,
			item.ProteinPer100g,
			item.ServingSize,
			item.Unit,
			formatTime(item.CreatedAt),
			nameKey(item.Name),
		).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("save food item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save food item: %w", err)
	}
	return n == 1, nil
}

// FindFoodItemByName returns the user's saved food with the given name.
func (d *DB) FindFoodItemByName(ctx context.Context, userID, name string) (*models.FoodItem, error) {
	items, err := d.selectFoodItems(ctx, d.sb.Select(foodItemColumns...).
		From("food_items").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"name_key": nameKey(name)}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// ListFoodItems returns all of the user's saved foods ordered by name.
func (d *DB) ListFoodItems(ctx context.Context, userID string) ([]*models.FoodItem, error) {
	return d.selectFoodItems(ctx, d.sb.Select(foodItemColumns...).
		From("food_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("name_key ASC", "name ASC"))
}

// SearchFoodItems returns saved foods whose name contains query, ignoring case.
func (d *DB) SearchFoodItems(ctx context.Context, userID, query string) ([]*models.FoodItem, error) {
	pattern := "%" + escapeLike(nameKey(query)) + "%"
	return d.selectFoodItems(ctx, d.sb.Select(foodItemColumns...).
		From("food_items").
		Where(sq.Eq{"user_id": userID}).
		Where(`name_key LIKE ? ESCAPE '\'`, pattern).
		OrderBy("name_key ASC", "name ASC"))
}

// DeleteFoodItem removes one of the user's saved foods.
func (d *DB) DeleteFoodItem(ctx context.Context, userID string, id uuid.UUID) error {
	query, args, err := d.sb.Delete("food_items").
		Where(sq.Eq{"id": id.String(), "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete food item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveFoodItemID resolves a full ID or unique prefix to a saved food ID.
func (d *DB) ResolveFoodItemID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	return d.resolveID(ctx, "food_items", userID, idOrPrefix)
}
