// ABOUTME: History calendar view: a month of day buckets laid out as a Sunday-first grid.
// ABOUTME: Each day carries its totals and a calorie status against the user's goal.
package views

import (
	"context"
	"sync"
	"time"

	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
)

// CalendarDay is one cell of the month grid. Padding cells have Day 0.
type CalendarDay struct {
	Date    string                  `json:"date,omitempty"`
	Day     int                     `json:"day"`
	Bucket  *aggregate.DayBucket    `json:"bucket,omitempty"`
	Status  aggregate.CalorieStatus `json:"status,omitempty"`
	IsToday bool                    `json:"is_today"`
}

// InMonth reports whether the cell is a real day of the month.
func (c CalendarDay) InMonth() bool { return c.Day > 0 }

// HasData reports whether anything was logged on the day.
func (c CalendarDay) HasData() bool { return c.Bucket != nil && len(c.Bucket.Entries) > 0 }

// Calendar is the month history view.
type Calendar struct {
	mu       sync.Mutex
	svc      *tracker.Service
	userID   string
	year     int
	month    time.Month
	days     map[string]*aggregate.DayBucket
	goals    *models.UserGoals
	selected string
}

// NewCalendar returns a calendar on the current month. Call Load to fetch data.
func NewCalendar(svc *tracker.Service, userID string) *Calendar {
	today := svc.Today()
	return &Calendar{
		svc:    svc,
		userID: userID,
		year:   today.Year(),
		month:  today.Month(),
		days:   map[string]*aggregate.DayBucket{},
		goals:  models.DefaultGoals(userID),
	}
}

// Month returns the month being shown.
func (c *Calendar) Month() (int, time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year, c.month
}

// Title returns the month as "March 2024".
func (c *Calendar) Title() string {
	year, month := c.Month()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// Load fetches the month's buckets and the user's goals.
func (c *Calendar) Load(ctx context.Context) {
	year, month := c.Month()
	days := c.svc.GetHistory(ctx, c.userID, year, month)
	goals := c.svc.GetGoals(ctx, c.userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.year != year || c.month != month {
		return
	}
	c.days = days
	c.goals = goals
}

// GotoMonth switches to a month and loads it.
func (c *Calendar) GotoMonth(ctx context.Context, year int, month time.Month) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	c.mu.Lock()
	c.year, c.month = first.Year(), first.Month()
	c.days = map[string]*aggregate.DayBucket{}
	c.selected = ""
	c.mu.Unlock()
	c.Load(ctx)
}

// PrevMonth moves to the previous month.
func (c *Calendar) PrevMonth(ctx context.Context) {
	year, month := c.Month()
	c.GotoMonth(ctx, year, month-1)
}

// NextMonth moves to the following month.
func (c *Calendar) NextMonth(ctx context.Context) {
	year, month := c.Month()
	c.GotoMonth(ctx, year, month+1)
}

// Grid lays the month out in weeks of seven days starting on Sunday.
func (c *Calendar) Grid() [][]CalendarDay {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := time.Date(c.year, c.month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	todayKey := aggregate.DateKey(c.svc.Today())

	cells := make([]CalendarDay, int(first.Weekday()), 42)
	for day := 1; day <= daysInMonth; day++ {
		key := aggregate.DateKey(first.AddDate(0, 0, day-1))
		cell := CalendarDay{Date: key, Day: day, IsToday: key == todayKey}
		if b, ok := c.days[key]; ok {
			cell.Bucket = b
			cell.Status = aggregate.StatusFor(b.TotalCalories, c.goals.CalorieGoal)
		}
		cells = append(cells, cell)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, CalendarDay{})
	}

	weeks := make([][]CalendarDay, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// Select marks date (YYYY-MM-DD) as the day whose details are shown.
// It returns the day's bucket, or nil when nothing was logged.
func (c *Calendar) Select(date string) *aggregate.DayBucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = date
	return c.days[date]
}

// Selected returns the selected date and its bucket.
func (c *Calendar) Selected() (string, *aggregate.DayBucket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.days[c.selected]
}

// Goals returns the goals the statuses are computed against.
func (c *Calendar) Goals() *models.UserGoals {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := *c.goals
	return &g
}
