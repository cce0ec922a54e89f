// ABOUTME: Data migration between caltra storage backends.
// ABOUTME: Copies one user's food logs, saved foods, and goals from source to destination.
package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	FoodLogs  int
	FoodItems int
	Goals     bool
	Skipped   int
}

// MigrateData copies srcUser's data from src into dst, owned by dstUser.
// Records already present in dst are skipped, so a migration can be re-run.
func MigrateData(ctx context.Context, src, dst Repository, srcUser, dstUser string) (*MigrateSummary, error) {
	data, err := GetAllData(ctx, src, srcUser)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	imported, err := ImportData(ctx, dst, data, dstUser)
	if err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		FoodLogs:  imported.FoodLogs,
		FoodItems: imported.FoodItems,
		Goals:     imported.Goals,
		Skipped:   imported.SkippedLogs + imported.SkippedItems,
	}, nil
}
