// ABOUTME: User account storage for SQLite.
// ABOUTME: Emails are stored normalized and must be unique.
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

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

// CreateUser stores a new account. A taken email yields ErrDuplicateEmail.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	query, args, err := d.sb.Insert("users").
		Columns("id", "email", "display_name", "password_hash", "created_at").
		Values(u.ID.String(), models.NormalizeEmail(u.Email), u.DisplayName, u.PasswordHash, formatTime(u.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser looks up an account by ID.
func (d *DB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return d.getUser(ctx, sq.Eq{"id": id.String()})
}

// GetUserByEmail looks up an account by email, ignoring case and surrounding space.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.getUser(ctx, sq.Eq{"email": models.NormalizeEmail(email)})
}

func (d *DB) getUser(ctx context.Context, where sq.Eq) (*models.User, error) {
	query, args, err := d.sb.Select("id", "email", "display_name", "password_hash", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row userRow
	if err := d.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           id,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}
