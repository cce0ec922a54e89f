// ABOUTME: PostgreSQL storage backend built on GORM over the pgx stdlib driver.
// ABOUTME: Implements Repository for hosted, multi-user deployments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type foodLogRecord struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID    string    `gorm:"column:user_id;not null;index:idx_food_logs_user_eaten,priority:1"`
	FoodName  string    `gorm:"column:food_name;not null"`
	WeightG   float64   `gorm:"column:weight_g;not null"`
	Calories  float64   `gorm:"column:calories;not null"`
	Protein   float64   `gorm:"column:protein;not null"`
	EatenAt   time.Time `gorm:"column:eaten_at;not null;index:idx_food_logs_user_eaten,priority:2"`
	MealType  string    `gorm:"column:meal_type;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (foodLogRecord) TableName() string { return "food_logs" }

type foodItemRecord struct {
	ID              string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID          string    `gorm:"column:user_id;not null;index"`
	Name            string    `gorm:"column:name;not null"`
	CaloriesPer100g float64   `gorm:"column:calories_per_100g;not null"`
	ProteinPer100g  float64   `gorm:"column:protein_per_100g;not null"`
	ServingSize     float64   `gorm:"column:serving_size;not null"`
	Unit            string    `gorm:"column:unit;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

func (foodItemRecord) TableName() string { return "food_items" }

type goalsRecord struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	CalorieGoal float64   `gorm:"column:calorie_goal;not null"`
	ProteinGoal float64   `gorm:"column:protein_goal;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (goalsRecord) TableName() string { return "user_goals" }

type userRecord struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	DisplayName  string    `gorm:"column:display_name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (userRecord) TableName() string { return "users" }

// PostgresStore implements Repository on PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

var _ Repository = (*PostgresStore)(nil)

// OpenPostgres connects to dsn through pgx, runs migrations, and returns a store.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	sqlDB := stdlib.OpenDB(*cfg)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.New(
			logging.Storage(),
			logger.Config{
				SlowThreshold:             1500 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	store := NewPostgresStore(gdb)
	if err := store.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an already opened GORM handle.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates or updates the tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&userRecord{},
		&foodLogRecord{},
		&foodItemRecord{},
		&goalsRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return s.createFoodItemNameIndex(ctx)
}

// createFoodItemNameIndex enforces one saved food per user and lower-cased name.
func (s *PostgresStore) createFoodItemNameIndex(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_food_items_user_lower_name ON food_items (user_id, lower(name))`,
	).Error
	if err != nil {
		return fmt.Errorf("create food item name index: %w", err)
	}
	return nil
}

// WithTx runs fn against a store bound to one GORM transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx})
	})
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toFoodLogRecord(e *models.FoodLogEntry) foodLogRecord {
	return foodLogRecord{
		ID:        e.ID.String(),
		UserID:    e.UserID,
		FoodName:  e.FoodName,
		WeightG:   e.WeightG,
		Calories:  e.Calories,
		Protein:   e.Protein,
		EatenAt:   e.EatenAt.UTC(),
		MealType:  string(e.MealType.OrDefault()),
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func (r foodLogRecord) toModel() (*models.FoodLogEntry, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	return &models.FoodLogEntry{
		ID:        id,
		UserID:    r.UserID,
		FoodName:  r.FoodName,
		WeightG:   r.WeightG,
		Calories:  r.Calories,
		Protein:   r.Protein,
		EatenAt:   r.EatenAt.UTC(),
		MealType:  models.MealType(r.MealType).OrDefault(),
		CreatedAt: r.CreatedAt.UTC(),
	}, nil
}

func (r foodItemRecord) toModel() (*models.FoodItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	item := &models.FoodItem{
		ID:              id,
		UserID:          r.UserID,
		Name:            r.Name,
		CaloriesPer100g: r.CaloriesPer100g,
		ProteinPer100g:  r.ProteinPer100g,
		ServingSize:     r.ServingSize,
		Unit:            r.Unit,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	item.ApplyDefaults()
	return item, nil
}

// CreateFoodLog stores a new food log entry.
func (s *PostgresStore) CreateFoodLog(ctx context.Context, e *models.FoodLogEntry) error {
	rec := toFoodLogRecord(e)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create food log: %w", err)
	}
	return nil
}

// GetFoodLog retrieves one of the user's entries by ID.
func (s *PostgresStore) GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*models.FoodLogEntry, error) {
	var rec foodLogRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get food log: %w", err)
	}
	return rec.toModel()
}

// ListFoodLogs returns the user's entries inside the filter window.
func (s *PostgresStore) ListFoodLogs(ctx context.Context, userID string, filter LogFilter) ([]*models.FoodLogEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.From.IsZero() {
		q = q.Where("eaten_at >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q = q.Where("eaten_at < ?", filter.To.UTC())
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var recs []foodLogRecord
	if err := q.Order("eaten_at ASC, created_at ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}

	entries := make([]*models.FoodLogEntry, 0, len(recs))
	for _, r := range recs {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpdateFoodLog applies patch to one of the user's entries.
func (s *PostgresStore) UpdateFoodLog(ctx context.Context, userID string, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error) {
	if patch.IsEmpty() {
		return s.GetFoodLog(ctx, userID, id)
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
		set["eaten_at"] = patch.EatenAt.UTC()
	}

	res := s.db.WithContext(ctx).
		Model(&foodLogRecord{}).
		Where("id = ? AND user_id = ?", id.String(), userID).
		Updates(set)
	if res.Error != nil {
		return nil, fmt.Errorf("update food log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetFoodLog(ctx, userID, id)
}

// DeleteFoodLog removes one of the user's entries.
func (s *PostgresStore) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), userID).
		Delete(&foodLogRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete food log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveFoodLogID resolves a full ID or unique prefix to an entry ID.
func (s *PostgresStore) ResolveFoodLogID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	return s.resolveID(ctx, &foodLogRecord{}, userID, idOrPrefix)
}

// SaveFoodItem inserts item unless the user already has one with the same name.
// A concurrent save of the same name loses on the unique index and reports false.
func (s *PostgresStore) SaveFoodItem(ctx context.Context, item *models.FoodItem) (bool, error) {
	if _, err := s.FindFoodItemByName(ctx, item.UserID, item.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	item.ApplyDefaults()
	rec := foodItemRecord{
		ID:              item.ID.String(),
		UserID:          item.UserID,
		Name:            item.Name,
		CaloriesPer100g: item.CaloriesPer100g,
		ProteinPer100g:  item.ProteinPer100g,
		ServingSize:     item.ServingSize,
		Unit:            item.Unit,
		CreatedAt:       item.CreatedAt.UTC(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		if isPgUniqueViolation(res.Error) {
			return false, nil
		}
		return false, fmt.Errorf("save food item: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// FindFoodItemByName returns the user's saved food with the given name, ignoring case.
func (s *PostgresStore) FindFoodItemByName(ctx context.Context, userID, name string) (*models.FoodItem, error) {
	var recs []foodItemRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, strings.TrimSpace(name)).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("find food item: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0].toModel()
}

// ListFoodItems returns all of the user's saved foods ordered by name.
func (s *PostgresStore) ListFoodItems(ctx context.Context, userID string) ([]*models.FoodItem, error) {
	return s.findFoodItems(s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// SearchFoodItems returns saved foods whose name contains query, ignoring case.
func (s *PostgresStore) SearchFoodItems(ctx context.Context, userID, query string) ([]*models.FoodItem, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return s.findFoodItems(s.db.WithContext(ctx).Where("user_id = ? AND name ILIKE ?", userID, pattern))
}

func (s *PostgresStore) findFoodItems(q *gorm.DB) ([]*models.FoodItem, error) {
	var recs []foodItemRecord
	if err := q.Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}
	items := make([]*models.FoodItem, 0, len(recs))
	for _, r := range recs {
		item, err := r.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// DeleteFoodItem removes one of the user's saved foods.
func (s *PostgresStore) DeleteFoodItem(ctx context.Context, userID string, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), userID).
		Delete(&foodItemRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete food item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveFoodItemID resolves a full ID or unique prefix to a saved food ID.
func (s *PostgresStore) ResolveFoodItemID(ctx context.Context, userID, idOrPrefix string) (uuid.UUID, error) {
	return s.resolveID(ctx, &foodItemRecord{}, userID, idOrPrefix)
}

// GetGoals returns the user's stored goals, or ErrNotFound.
func (s *PostgresStore) GetGoals(ctx context.Context, userID string) (*models.UserGoals, error) {
	var rec goalsRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get goals: %w", err)
	}
	return &models.UserGoals{
		UserID:      rec.UserID,
		CalorieGoal: rec.CalorieGoal,
		ProteinGoal: rec.ProteinGoal,
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}, nil
}

// UpsertGoals creates or replaces the user's goals.
func (s *PostgresStore) UpsertGoals(ctx context.Context, g *models.UserGoals) error {
	rec := goalsRecord{
		UserID:      g.UserID,
		CalorieGoal: g.CalorieGoal,
		ProteinGoal: g.ProteinGoal,
		UpdatedAt:   g.UpdatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"calorie_goal", "protein_goal", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert goals: %w", err)
	}
	return nil
}

// CreateUser stores a new account. A taken email yields ErrDuplicateEmail.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	rec := userRecord{
		ID:           u.ID.String(),
		Email:        models.NormalizeEmail(u.Email),
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isPgUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser looks up an account by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(s.db.WithContext(ctx).Where("id = ?", id.String()))
}

// GetUserByEmail looks up an account by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)))
}

func (s *PostgresStore) getUser(q *gorm.DB) (*models.User, error) {
	var rec userRecord
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	return &models.User{
		ID:           id,
		Email:        rec.Email,
		DisplayName:  rec.DisplayName,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt.UTC(),
	}, nil
}

func (s *PostgresStore) resolveID(ctx context.Context, model interface{}, userID, idOrPrefix string) (uuid.UUID, error) {
	idOrPrefix = strings.ToLower(strings.TrimSpace(idOrPrefix))
	if id, err := uuid.Parse(idOrPrefix); err == nil {
		return id, nil
	}
	if idOrPrefix == "" || strings.Trim(idOrPrefix, "0123456789abcdef-") != "" {
		return uuid.Nil, ErrNotFound
	}

	var ids []string
	err := s.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND id::text LIKE ?", userID, idOrPrefix+"%").
		Limit(2).
		Pluck("id", &ids).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve id: %w", err)
	}
	switch len(ids) {
	case 0:
		return uuid.Nil, ErrNotFound
	case 1:
		return uuid.Parse(ids[0])
	default:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}
