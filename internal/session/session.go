// Package session owns the single active workout session and its lifecycle.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/models"
	"github.com/google/uuid"
)

var (
	ErrConflict        = errors.New("a workout session is already active")
	ErrNotActive       = errors.New("no active workout session")
	ErrUnassigned      = errors.New("exercise not assigned for today")
	ErrUnknownExercise = errors.New("unknown exercise")
	ErrStreamBusy      = errors.New("session stream already open")
)

// Store is the daily-assignment store the manager validates against and
// flushes reps into.
type Store interface {
	GetExercise(ctx context.Context, id int) (models.Exercise, error)
	GetDailyWorkout(ctx context.Context, userID, exerciseID int, date time.Time) (models.DailyWorkout, error)
	RecordReps(ctx context.Context, userID, exerciseID int, date time.Time, reps int) (models.DailyWorkout, error)
}

// Session is the state of one workout in progress. Values handed out by the
// Manager are copies.
type Session struct {
	ID           uuid.UUID        `json:"id"`
	UserID       int              `json:"user_id"`
	ExerciseID   int              `json:"exercise_id"`
	ExerciseName string           `json:"exercise"`
	Variant      exercise.Variant `json:"variant"`
	TargetReps   int              `json:"target_reps"`
	CurrentReps  int              `json:"current_reps"`
	Stage        exercise.Stage   `json:"stage"`
	Angle        float64          `json:"angle"`
	// MinAngle and MaxAngle span the angles seen on frames with landmarks.
	MinAngle     float64   `json:"min_angle"`
	MaxAngle     float64   `json:"max_angle"`
	Frames       int       `json:"frames"`
	MissedFrames int       `json:"missed_frames"`
	StartedAt    time.Time `json:"started_at"`
	// Date is the assignment day the reps are credited to.
	Date time.Time `json:"date"`
}

// Profile returns the state machine profile for the session's variant.
func (s Session) Profile() exercise.Profile {
	return exercise.ProfileFor(s.Variant)
}

// RemainingReps is the part of the target not yet reached in this session.
func (s Session) RemainingReps() int {
	return max(0, s.TargetReps-s.CurrentReps)
}

// Summary is returned by End.
type Summary struct {
	Session  Session             `json:"session"`
	Reps     int                 `json:"reps"`
	Duration time.Duration       `json:"duration_ns"`
	Workout  models.DailyWorkout `json:"workout"`
}
