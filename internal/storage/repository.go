// ABOUTME: Repository interface for caltra data storage.
// ABOUTME: Defines the per-user contract for food logs, saved foods, goals, and users.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when an ID prefix matches more than one record.
	ErrAmbiguous = errors.New("ambiguous prefix")
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already in use")
)

// LogFilter narrows a food log listing. Zero values mean unbounded.
// From is inclusive and To is exclusive.
type LogFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Repository defines the storage interface for caltra data.
// Every food, catalog, and goal operation is scoped to a user ID.
type Repository interface {
	// Food log operations
	CreateFoodLog(ctx context.Context, e *models.FoodLogEntry) error
	GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*models.FoodLogEntry, error)
	ListFoodLogs(ctx context.Context, userID string, filter LogFilter) ([]*models.FoodLogEntry, error)
	UpdateFoodLog(ctx context.Context, userID string, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error)
	DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error
	ResolveFoodLogID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error)

	// Saved food catalog operations
	SaveFoodItem(ctx context.Context, item *models.FoodItem) (bool, error)
	FindFoodItemByName(ctx context.Context, userID, name string) (*models.FoodItem, error)
	ListFoodItems(ctx context.Context, userID string) ([]*models.FoodItem, error)
	SearchFoodItems(ctx context.Context, userID, query string) ([]*models.FoodItem, error)
	DeleteFoodItem(ctx context.Context, userID string, id uuid.UUID) error
	ResolveFoodItemID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error)

	// Goal operations
	GetGoals(ctx context.Context, userID string) (*models.UserGoals, error)
	UpsertGoals(ctx context.Context, g *models.UserGoals) error

	// User operations
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// WithTx runs fn inside one transaction. Writes made through the
	// Repository passed to fn are discarded if fn returns an error.
	WithTx(ctx context.Context, fn func(Repository) error) error

	// Lifecycle
	Close() error
}
