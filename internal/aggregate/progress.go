// ABOUTME: Goal progress calculations for daily summaries and the history calendar.
// ABOUTME: Percentages are capped at 100; overshoot is reported separately.
package aggregate

import "math"

// Progress describes consumption against a goal.
type Progress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
	Over     float64 `json:"over"`
}

// NewProgress computes progress toward goal. A non-positive goal yields 0%.
func NewProgress(consumed, goal float64) Progress {
	p := Progress{Consumed: consumed, Goal: goal}
	if goal > 0 {
		p.Percent = math.Min(consumed/goal*100, 100)
	}
	p.Over = math.Max(0, consumed-goal)
	return p
}

// CalorieStatus classifies a day's calories against the goal.
type CalorieStatus string

const (
	StatusLow  CalorieStatus = "low"
	StatusOK   CalorieStatus = "ok"
	StatusOver CalorieStatus = "over"
)

// StatusFor returns low up to half the goal, ok up to the goal, and over beyond it.
func StatusFor(calories, goal float64) CalorieStatus {
	if goal <= 0 {
		if calories > 0 {
			return StatusOver
		}
		return StatusLow
	}
	pct := calories / goal * 100
	switch {
	case pct <= 50:
		return StatusLow
	case pct <= 100:
		return StatusOK
	default:
		return StatusOver
	}
}
