// ABOUTME: Daily goal storage for SQLite.
// ABOUTME: One row per user, written with an upsert.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/harperreed/caltra/internal/models"
)

type goalsRow struct {
	UserID      string  `db:"user_id"`
	CalorieGoal float64 `db:"calorie_goal"`
	ProteinGoal float64 `db:"protein_goal"`
	UpdatedAt   string  `db:"updated_at"`
}

// GetGoals returns the user's stored goals, or ErrNotFound if none were saved.
func (d *DB) GetGoals(ctx context.Context, userID string) (*models.UserGoals, error) {
	query, args, err := d.sb.Select("user_id", "calorie_goal", "protein_goal", "updated_at").
		From("user_goals").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row goalsRow
	if err := d.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get goals: %w", err)
	}

	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &models.UserGoals{
		UserID:      row.UserID,
		CalorieGoal: row.CalorieGoal,
		ProteinGoal: row.ProteinGoal,
		UpdatedAt:   updatedAt,
	}, nil
}

// UpsertGoals creates or replaces the user's goals.
func (d *DB) UpsertGoals(ctx context.Context, g *models.UserGoals) error {
	query, args, err := d.sb.Insert("user_goals").
		Columns("user_id", "calorie_goal", "protein_goal", "updated_at").
		Values(g.UserID, g.CalorieGoal, g.ProteinGoal, formatTime(g.UpdatedAt)).
		Suffix(`ON CONFLICT(user_id) DO UPDATE SET
			calorie_goal = excluded.calorie_goal,
			protein_goal = excluded.protein_goal,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert goals: %w", err)
	}
	return nil
}
