// ABOUTME: Shared fixtures for view tests: a tracker over temp SQLite and a failing store.
// ABOUTME: The failing store lets tests exercise optimistic rollback.
package views

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/stretchr/testify/require"
)

const testUser = "u1"

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

var errWrite = errors.New("write failed")

// flakyRepo fails writes while failWrites is set.
type flakyRepo struct {
	*storage.DB
	failWrites bool
}

func (r *flakyRepo) CreateFoodLog(ctx context.Context, e *models.FoodLogEntry) error {
	if r.failWrites {
		return errWrite
	}
	return r.DB.CreateFoodLog(ctx, e)
}

func (r *flakyRepo) UpdateFoodLog(ctx context.Context, userID string, id uuid.UUID, patch models.FoodLogPatch) (*models.FoodLogEntry, error) {
	if r.failWrites {
		return nil, errWrite
	}
	return r.DB.UpdateFoodLog(ctx, userID, id, patch)
}

func (r *flakyRepo) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	if r.failWrites {
		return errWrite
	}
	return r.DB.DeleteFoodLog(ctx, userID, id)
}

type stubEstimator struct {
	est *models.Estimate
	err error
}

func (s stubEstimator) Estimate(context.Context, string) (*models.Estimate, error) {
	return s.est, s.err
}

func setupTracker(t *testing.T, opts ...tracker.Option) (*tracker.Service, *flakyRepo) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "caltra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &flakyRepo{DB: db}
	opts = append([]tracker.Option{
		tracker.WithLogger(logging.Discard()),
		tracker.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return tracker.New(repo, opts...), repo
}
