package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/reptrack/internal/models"
	"github.com/jackc/pgx/v5"
)

const dailyWorkoutColumns = `dw.id, dw.user_id, dw.exercise_id, e.name, dw.workout_date,
	dw.target_reps, dw.completed_reps, dw.is_completed`

// AssignWorkout creates the assignment for (user, exercise, date). Returns
// false when one already exists; the existing target is left untouched.
func (db *DB) AssignWorkout(ctx context.Context, userID, exerciseID int, date time.Time, targetReps int) (bool, error) {
	if targetReps < 0 {
		return false, fmt.Errorf("assigning workout: negative target %d", targetReps)
	}
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO daily_workouts (user_id, exercise_id, workout_date, target_reps)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, exercise_id, workout_date) DO NOTHING
	`, userID, exerciseID, date, targetReps)
	if err != nil {
		return false, fmt.Errorf("assigning workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetDailyWorkout returns the assignment for (user, exercise, date).
func (db *DB) GetDailyWorkout(ctx context.Context, userID, exerciseID int, date time.Time) (models.DailyWorkout, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+dailyWorkoutColumns+`
		FROM daily_workouts dw JOIN exercises e ON e.id = dw.exercise_id
		WHERE dw.user_id = $1 AND dw.exercise_id = $2 AND dw.workout_date = $3
	`, userID, exerciseID, date)
	dw, err := scanDailyWorkout(row)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("getting daily workout: %w", notFound(err))
	}
	return dw, nil
}

// ListDailyWorkouts returns a user's assignments with from <= date < to,
// ordered by date then exercise name.
func (db *DB) ListDailyWorkouts(ctx context.Context, userID int, from, to time.Time) ([]models.DailyWorkout, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+dailyWorkoutColumns+`
		FROM daily_workouts dw JOIN exercises e ON e.id = dw.exercise_id
		WHERE dw.user_id = $1 AND dw.workout_date >= $2 AND dw.workout_date < $3
		ORDER BY dw.workout_date, e.name
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying daily workouts: %w", err)
	}
	defer rows.Close()

	var result []models.DailyWorkout
	for rows.Next() {
		dw, err := scanDailyWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily workout: %w", err)
		}
		result = append(result, dw)
	}
	return result, rows.Err()
}

// RecordReps adds reps to the completed count of an assignment and
// recomputes its completion flag in the same statement.
func (db *DB) RecordReps(ctx context.Context, userID, exerciseID int, date time.Time, reps int) (models.DailyWorkout, error) {
	if reps < 0 {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: negative count %d", reps)
	}
	row := db.Pool.QueryRow(ctx, `
		WITH dw AS (
			UPDATE daily_workouts
			SET completed_reps = completed_reps + $4,
				is_completed = completed_reps + $4 >= target_reps
			WHERE user_id = $1 AND exercise_id = $2 AND workout_date = $3
			RETURNING *
		)
		SELECT `+dailyWorkoutColumns+`
		FROM dw JOIN exercises e ON e.id = dw.exercise_id
	`, userID, exerciseID, date, reps)
	dw, err := scanDailyWorkout(row)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", notFound(err))
	}
	return dw, nil
}

func scanDailyWorkout(row pgx.Row) (models.DailyWorkout, error) {
	var dw models.DailyWorkout
	err := row.Scan(&dw.ID, &dw.UserID, &dw.ExerciseID, &dw.ExerciseName, &dw.Date,
		&dw.TargetReps, &dw.CompletedReps, &dw.IsCompleted)
	return dw, err
}
