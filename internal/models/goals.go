// ABOUTME: UserGoals model holding daily calorie and protein targets.
// ABOUTME: One row per user; defaults apply when nothing has been saved.
package models

import "time"

const (
	DefaultCalorieGoal = 2000
	DefaultProteinGoal = 150
)

// UserGoals holds a user's daily targets.
type UserGoals struct {
	UserID      string    `json:"user_id" yaml:"user_id"`
	CalorieGoal float64   `json:"calorie_goal" yaml:"calorie_goal"`
	ProteinGoal float64   `json:"protein_goal" yaml:"protein_goal"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// DefaultGoals returns the goals used before a user saves their own.
func DefaultGoals(userID string) *UserGoals {
	return &UserGoals{
		UserID:      userID,
		CalorieGoal: DefaultCalorieGoal,
		ProteinGoal: DefaultProteinGoal,
	}
}

// NewUserGoals creates goals stamped with the current time.
func NewUserGoals(userID string, calorieGoal, proteinGoal float64) *UserGoals {
	return &UserGoals{
		UserID:      userID,
		CalorieGoal: calorieGoal,
		ProteinGoal: proteinGoal,
		UpdatedAt:   time.Now().UTC(),
	}
}
