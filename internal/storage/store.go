package storage

import (
	"context"
	"time"

	"github.com/claude/reptrack/internal/models"
)

// Store is the repository surface shared by the Postgres and SQLite backends.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	GetUser(ctx context.Context, id int) (models.User, error)

	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id int) (models.Exercise, error)
	UpsertExercise(ctx context.Context, name, description string) (models.Exercise, error)

	AssignWorkout(ctx context.Context, userID, exerciseID int, date time.Time, targetReps int) (bool, error)
	GetDailyWorkout(ctx context.Context, userID, exerciseID int, date time.Time) (models.DailyWorkout, error)
	ListDailyWorkouts(ctx context.Context, userID int, from, to time.Time) ([]models.DailyWorkout, error)
	RecordReps(ctx context.Context, userID, exerciseID int, date time.Time, reps int) (models.DailyWorkout, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Lite)(nil)
)
