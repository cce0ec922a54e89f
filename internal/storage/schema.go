// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for users, food logs, saved foods, and daily goals.
package storage

import (
	"fmt"
	"strings"
)

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS food_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		food_name TEXT NOT NULL,
		weight_g REAL NOT NULL DEFAULT 0,
		calories REAL NOT NULL DEFAULT 0,
		protein REAL NOT NULL DEFAULT 0,
		eaten_at TEXT NOT NULL,
		meal_type TEXT NOT NULL DEFAULT 'Snack',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS food_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL DEFAULT '',
		calories_per_100g REAL NOT NULL DEFAULT 0,
		protein_per_100g REAL NOT NULL DEFAULT 0,
		serving_size REAL NOT NULL DEFAULT 100,
		unit TEXT NOT NULL DEFAULT 'g',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_goals (
		user_id TEXT PRIMARY KEY,
		calorie_goal REAL NOT NULL,
		protein_goal REAL NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_food_logs_user_eaten ON food_logs(user_id, eaten_at);
	`

	if _, err := d.conn.Exec(schema); err != nil {
		return err
	}
	if err := d.migrateFoodItemKeys(); err != nil {
		return fmt.Errorf("migrate food item keys: %w", err)
	}

	_, err := d.conn.Exec(`
	DROP INDEX IF EXISTS idx_food_items_user_name;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_food_items_user_key ON food_items(user_id, name_key);
	`)
	return err
}

// migrateFoodItemKeys adds the name_key column to catalogs created before it
// existed and fills in keys that are still blank. SQLite's LOWER only folds
// ASCII, so keys are computed in Go.
func (d *DB) migrateFoodItemKeys() error {
	var hasKey bool
	if err := d.conn.Get(&hasKey, `SELECT COUNT(*) > 0 FROM pragma_table_info('food_items') WHERE name = 'name_key'`); err != nil {
		return err
	}
	if !hasKey {
		if _, err := d.conn.Exec(`ALTER TABLE food_items ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}

	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := d.conn.Select(&rows, `SELECT id, name FROM food_items WHERE name_key = '' ORDER BY created_at, id`); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := d.conn.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		key := nameKey(r.Name)
		if key == "" {
			continue
		}
		var n int
		if err := tx.Get(&n, `SELECT COUNT(*) FROM food_items WHERE user_id = (SELECT user_id FROM food_items WHERE id = ?) AND name_key = ?`, r.ID, key); err != nil {
			return err
		}
		if n > 0 {
			// An older row already owns this name.
			if _, err := tx.Exec(`DELETE FROM food_items WHERE id = ?`, r.ID); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(`UPDATE food_items SET name_key = ? WHERE id = ?`, key, r.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// nameKey is the catalog's case-insensitive identity for a food name.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
