package models

import "time"

// DateLayout is the calendar-day format used in keys and the sqlite store.
const DateLayout = "2006-01-02"

// User is a row in the users table.
type User struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Exercise is a row in the exercises table.
type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DailyWorkout is a daily assignment: a user, an exercise and a calendar day
// bound to a target rep count.
type DailyWorkout struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	ExerciseID    int       `json:"exercise_id"`
	ExerciseName  string    `json:"exercise_name"`
	Date          time.Time `json:"date"`
	TargetReps    int       `json:"target_reps"`
	CompletedReps int       `json:"completed_reps"`
	IsCompleted   bool      `json:"is_completed"`
}

// RemainingReps returns the reps still to do, never negative.
func (d DailyWorkout) RemainingReps() int {
	return max(0, d.TargetReps-d.CompletedReps)
}

// Day truncates t to its calendar day in loc, returned as midnight UTC so the
// value round-trips through DATE columns unchanged.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
