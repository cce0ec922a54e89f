// ABOUTME: Export and import functionality for caltra data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats over any Repository.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportVersion is the current export format version.
const ExportVersion = "1.0"

// ExportData represents the full export format for one user's data.
type ExportData struct {
	Version    string                 `json:"version" yaml:"version"`
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Tool       string                 `json:"tool" yaml:"tool"`
	UserID     string                 `json:"user_id" yaml:"user_id"`
	Goals      *models.UserGoals      `json:"goals,omitempty" yaml:"goals,omitempty"`
	FoodLogs   []*models.FoodLogEntry `json:"food_logs" yaml:"food_logs"`
	FoodItems  []*models.FoodItem     `json:"food_items" yaml:"food_items"`
}

// ImportSummary holds counts of imported entities.
type ImportSummary struct {
	FoodLogs     int
	FoodItems    int
	SkippedLogs  int
	SkippedItems int
	Goals        bool
}

// GetAllData retrieves everything stored for userID.
func GetAllData(ctx context.Context, repo Repository, userID string) (*ExportData, error) {
	logs, err := repo.ListFoodLogs(ctx, userID, LogFilter{})
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}

	items, err := repo.ListFoodItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}

	goals, err := repo.GetGoals(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get goals: %w", err)
	}

	return &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "caltra",
		UserID:     userID,
		Goals:      goals,
		FoodLogs:   logs,
		FoodItems:  items,
	}, nil
}

// ImportData writes data into repo as userID inside one transaction, so a
// failed import leaves nothing behind. Entries already imported and saved
// foods whose name is taken are skipped. Records exported by another user get
// IDs derived from their original ID and userID, which keeps re-imports
// idempotent without colliding with the original rows.
func ImportData(ctx context.Context, repo Repository, data *ExportData, userID string) (*ImportSummary, error) {
	var summary *ImportSummary
	err := repo.WithTx(ctx, func(tx Repository) error {
		var err error
		summary, err = importData(ctx, tx, data, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func importData(ctx context.Context, repo Repository, data *ExportData, userID string) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for _, e := range data.FoodLogs {
		entry := *e
		entry.ID = importID(e.ID, ownerOf(e.UserID, data.UserID), userID)
		entry.UserID = userID

		if _, err := repo.GetFoodLog(ctx, userID, entry.ID); err == nil {
			summary.SkippedLogs++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("check food log %s: %w", e.ID, err)
		}

		if err := repo.CreateFoodLog(ctx, &entry); err != nil {
			return nil, fmt.Errorf("import food log %s: %w", e.ID, err)
		}
		summary.FoodLogs++
	}

	for _, item := range data.FoodItems {
		copied := *item
		copied.ID = importID(item.ID, ownerOf(item.UserID, data.UserID), userID)
		copied.UserID = userID
		created, err := repo.SaveFoodItem(ctx, &copied)
		if err != nil {
			return nil, fmt.Errorf("import food item %s: %w", item.Name, err)
		}
		if created {
			summary.FoodItems++
		} else {
			summary.SkippedItems++
		}
	}

	if data.Goals != nil {
		goals := *data.Goals
		goals.UserID = userID
		if err := repo.UpsertGoals(ctx, &goals); err != nil {
			return nil, fmt.Errorf("import goals: %w", err)
		}
		summary.Goals = true
	}

	return summary, nil
}

func ownerOf(recordUser, exportUser string) string {
	if recordUser != "" {
		return recordUser
	}
	return exportUser
}

// importID keeps id when the record already belongs to userID and otherwise
// derives a stable per-user ID from it.
func importID(id uuid.UUID, owner, userID string) uuid.UUID {
	if owner == userID {
		return id
	}
	return uuid.NewSHA1(id, []byte(userID))
}

// ExportJSON exports all of userID's data as JSON.
func ExportJSON(ctx context.Context, repo Repository, userID string) ([]byte, error) {
	data, err := GetAllData(ctx, repo, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON imports data from JSON bytes as userID.
func ImportJSON(ctx context.Context, repo Repository, raw []byte, userID string) (*ImportSummary, error) {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return ImportData(ctx, repo, &data, userID)
}

type yamlDay struct {
	Calories float64        `yaml:"calories"`
	Protein  float64        `yaml:"protein"`
	Entries  []yamlFoodLine `yaml:"entries"`
}

type yamlFoodLine struct {
	ID       string  `yaml:"id"`
	Food     string  `yaml:"food"`
	Meal     string  `yaml:"meal"`
	WeightG  float64 `yaml:"weight_g"`
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	EatenAt  string  `yaml:"eaten_at"`
}

type yamlFood struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	CaloriesPer100g float64 `yaml:"calories_per_100g"`
	ProteinPer100g  float64 `yaml:"protein_per_100g"`
	Serving         string  `yaml:"serving"`
}

// ExportYAML exports userID's data as YAML with entries grouped by day.
func ExportYAML(ctx context.Context, repo Repository, userID string) ([]byte, error) {
	data, err := GetAllData(ctx, repo, userID)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string             `yaml:"version"`
		ExportedAt string             `yaml:"exported_at"`
		Tool       string             `yaml:"tool"`
		Goals      map[string]float64 `yaml:"goals,omitempty"`
		Days       map[string]yamlDay `yaml:"days"`
		Foods      []yamlFood         `yaml:"foods"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Days:       make(map[string]yamlDay),
		Foods:      make([]yamlFood, 0, len(data.FoodItems)),
	}

	if data.Goals != nil {
		yamlData.Goals = map[string]float64{
			"calories": data.Goals.CalorieGoal,
			"protein":  data.Goals.ProteinGoal,
		}
	}

	for key, bucket := range aggregate.GroupByDay(data.FoodLogs) {
		day := yamlDay{Calories: bucket.TotalCalories, Protein: bucket.TotalProtein}
		for _, e := range bucket.Entries {
			day.Entries = append(day.Entries, yamlFoodLine{
				ID:       e.ID.String()[:8],
				Food:     e.FoodName,
				Meal:     string(e.MealType),
				WeightG:  e.WeightG,
				Calories: e.Calories,
				Protein:  e.Protein,
				EatenAt:  e.EatenAt.Format(time.RFC3339),
			})
		}
		yamlData.Days[key] = day
	}

	for _, f := range data.FoodItems {
		yamlData.Foods = append(yamlData.Foods, yamlFood{
			ID:              f.ID.String()[:8],
			Name:            f.Name,
			CaloriesPer100g: f.CaloriesPer100g,
			ProteinPer100g:  f.ProteinPer100g,
			Serving:         fmt.Sprintf("%g%s", f.ServingSize, f.Unit),
		})
	}

	return yaml.Marshal(yamlData)
}

// ExportMarkdown renders userID's log as one table per day, newest first.
// A non-nil since drops entries eaten before it.
func ExportMarkdown(ctx context.Context, repo Repository, userID string, since *time.Time) (string, error) {
	filter := LogFilter{}
	if since != nil {
		filter.From = *since
	}
	logs, err := repo.ListFoodLogs(ctx, userID, filter)
	if err != nil {
		return "", fmt.Errorf("list food logs: %w", err)
	}

	var sb strings.Builder
	now := time.Now().UTC()

	sb.WriteString(fmt.Sprintf("# Caltra Export - %s\n\n", now.Format(aggregate.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	days := aggregate.GroupByDay(logs)
	keys := aggregate.SortedKeys(days)
	for i := len(keys) - 1; i >= 0; i-- {
		bucket := days[keys[i]]
		sb.WriteString(fmt.Sprintf("## %s\n\n", bucket.Date))
		sb.WriteString(fmt.Sprintf("Total: %.0f kcal, %.1f g protein\n\n", bucket.TotalCalories, bucket.TotalProtein))
		sb.WriteString("| Time | Meal | Food | Weight | Calories | Protein |\n")
		sb.WriteString("|------|------|------|--------|----------|---------|\n")
		for _, e := range bucket.Entries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.0f g | %.0f | %.1f g |\n",
				e.EatenAt.Format("15:04"), e.MealType, e.FoodName, e.WeightG, e.Calories, e.Protein))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
