// Package schedule answers the day and month views over daily workout
// assignments: today's list, reminders for unfinished work and the calendar.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/reptrack/internal/models"
)

// ErrInvalidMonth is returned for a month that is not YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month")

// Store is the slice of storage the views read from.
type Store interface {
	ListDailyWorkouts(ctx context.Context, userID int, from, to time.Time) ([]models.DailyWorkout, error)
}

// Assignment is a daily workout as shown to the user.
type Assignment struct {
	models.DailyWorkout
	RemainingReps int `json:"remaining_reps"`
}

// Reminder names an unfinished assignment for today.
type Reminder struct {
	ExerciseID    int    `json:"exercise_id"`
	ExerciseName  string `json:"exercise_name"`
	RemainingReps int    `json:"remaining_reps"`
}

// Day is one calendar cell. Days without assignments have no Workouts.
type Day struct {
	Date     string       `json:"date"`
	Workouts []Assignment `json:"workouts,omitempty"`
}

// Month is the calendar view. StartWeekday counts from Monday = 0.
type Month struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	DaysInMonth  int   `json:"days_in_month"`
	StartWeekday int   `json:"start_weekday"`
	Days         []Day `json:"days"`
}

// Annotate attaches the remaining rep count to each workout.
func Annotate(workouts []models.DailyWorkout) []Assignment {
	out := make([]Assignment, len(workouts))
	for i, w := range workouts {
		out[i] = Assignment{DailyWorkout: w, RemainingReps: w.RemainingReps()}
	}
	return out
}

// Pending filters to incomplete workouts.
func Pending(workouts []models.DailyWorkout) []Reminder {
	var out []Reminder
	for _, w := range workouts {
		if w.IsCompleted {
			continue
		}
		out = append(out, Reminder{
			ExerciseID:    w.ExerciseID,
			ExerciseName:  w.ExerciseName,
			RemainingReps: w.RemainingReps(),
		})
	}
	return out
}

// ParseMonth parses "YYYY-MM". An empty string selects the month containing
// now in loc. The result is the first of the month, midnight UTC.
func ParseMonth(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		d := models.Day(now, loc)
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q, want YYYY-MM", ErrInvalidMonth, s)
	}
	return t, nil
}

// MonthRange returns the half-open day range [first, first of next month).
func MonthRange(first time.Time) (from, to time.Time) {
	from = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// BuildMonth lays workouts out on the calendar of the month starting at first.
// Workouts outside the month are ignored.
func BuildMonth(first time.Time, workouts []models.DailyWorkout) Month {
	from, to := MonthRange(first)
	n := int(to.Sub(from).Hours() / 24)

	m := Month{
		Year:         from.Year(),
		Month:        int(from.Month()),
		DaysInMonth:  n,
		StartWeekday: (int(from.Weekday()) + 6) % 7,
		Days:         make([]Day, n),
	}
	for i := range m.Days {
		m.Days[i].Date = from.AddDate(0, 0, i).Format(models.DateLayout)
	}
	for _, a := range Annotate(workouts) {
		if a.Date.Before(from) || !a.Date.Before(to) {
			continue
		}
		i := a.Date.Day() - 1
		m.Days[i].Workouts = append(m.Days[i].Workouts, a)
	}
	return m
}

// Service evaluates the views in the configured timezone.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

// NewService creates a Service. A nil now uses time.Now.
func NewService(store Store, loc *time.Location, now func() time.Time, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, loc: loc, now: now, log: log}
}

// Location returns the timezone calendar days are evaluated in.
func (s *Service) Location() *time.Location { return s.loc }

// Today returns the current calendar day, midnight UTC.
func (s *Service) Today() time.Time { return models.Day(s.now(), s.loc) }

// TodayWorkouts lists the user's assignments for today.
func (s *Service) TodayWorkouts(ctx context.Context, userID int) ([]Assignment, error) {
	today := s.Today()
	rows, err := s.store.ListDailyWorkouts(ctx, userID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("listing today's workouts: %w", err)
	}
	return Annotate(rows), nil
}

// Reminders lists today's incomplete assignments and logs them.
func (s *Service) Reminders(ctx context.Context, userID int) ([]Reminder, error) {
	today := s.Today()
	rows, err := s.store.ListDailyWorkouts(ctx, userID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("listing today's workouts: %w", err)
	}
	pending := Pending(rows)
	if len(pending) > 0 {
		s.log.Info("incomplete workouts today", "user_id", userID, "count", len(pending))
		for _, p := range pending {
			s.log.Info("reminder", "user_id", userID, "exercise", p.ExerciseName, "remaining_reps", p.RemainingReps)
		}
	}
	return pending, nil
}

// Calendar returns the month view for month ("YYYY-MM", empty for current).
func (s *Service) Calendar(ctx context.Context, userID int, month string) (Month, error) {
	first, err := ParseMonth(month, s.now(), s.loc)
	if err != nil {
		return Month{}, err
	}
	from, to := MonthRange(first)
	rows, err := s.store.ListDailyWorkouts(ctx, userID, from, to)
	if err != nil {
		return Month{}, fmt.Errorf("listing month workouts: %w", err)
	}
	return BuildMonth(first, rows), nil
}
