package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/reptrack/internal/models"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

// Lite is the single-file SQLite store, used for local runs and tests.
type Lite struct {
	db *sql.DB
}

// OpenLite opens (or creates) the SQLite database at path. ":memory:" gives
// a private in-memory database.
func OpenLite(path string) (*Lite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return &Lite{db: db}, nil
}

// Migrate applies all pending embedded SQLite migrations.
func (l *Lite) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(l.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite driver: %w", err)
	}
	// The migrator is not closed: closing it would close l.db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Lite) Close() error {
	return l.db.Close()
}

// Ping checks the database is reachable.
func (l *Lite) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *Lite) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := l.db.QueryRowContext(ctx, `
		INSERT INTO users (login, display_name)
		VALUES (?1, ?2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = CURRENT_TIMESTAMP, display_name = COALESCE(NULLIF(?2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}

func (l *Lite) GetUser(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := l.db.QueryRowContext(ctx,
		`SELECT id, login, display_name FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return models.User{}, fmt.Errorf("getting user %d: %w", id, liteNotFound(err))
	}
	return u, nil
}

func (l *Lite) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, description FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (l *Lite) GetExercise(ctx context.Context, id int) (models.Exercise, error) {
	var e models.Exercise
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM exercises WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Description)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("getting exercise %d: %w", id, liteNotFound(err))
	}
	return e, nil
}

func (l *Lite) UpsertExercise(ctx context.Context, name, description string) (models.Exercise, error) {
	e := models.Exercise{Name: name, Description: description}
	err := l.db.QueryRowContext(ctx, `
		INSERT INTO exercises (name, description) VALUES (?1, ?2)
		ON CONFLICT (name) DO UPDATE SET description = excluded.description
		RETURNING id
	`, name, description).Scan(&e.ID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("upserting exercise %s: %w", name, err)
	}
	return e, nil
}

func (l *Lite) AssignWorkout(ctx context.Context, userID, exerciseID int, date time.Time, targetReps int) (bool, error) {
	if targetReps < 0 {
		return false, fmt.Errorf("assigning workout: negative target %d", targetReps)
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO daily_workouts (user_id, exercise_id, workout_date, target_reps)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, exercise_id, workout_date) DO NOTHING
	`, userID, exerciseID, date.Format(models.DateLayout), targetReps)
	if err != nil {
		return false, fmt.Errorf("assigning workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assigning workout: %w", err)
	}
	return n > 0, nil
}

const liteDailyWorkoutQuery = `
	SELECT dw.id, dw.user_id, dw.exercise_id, e.name, dw.workout_date,
		dw.target_reps, dw.completed_reps, dw.is_completed
	FROM daily_workouts dw JOIN exercises e ON e.id = dw.exercise_id`

func (l *Lite) GetDailyWorkout(ctx context.Context, userID, exerciseID int, date time.Time) (models.DailyWorkout, error) {
	row := l.db.QueryRowContext(ctx, liteDailyWorkoutQuery+`
		WHERE dw.user_id = ? AND dw.exercise_id = ? AND dw.workout_date = ?`,
		userID, exerciseID, date.Format(models.DateLayout))
	dw, err := scanLiteDailyWorkout(row)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("getting daily workout: %w", liteNotFound(err))
	}
	return dw, nil
}

func (l *Lite) ListDailyWorkouts(ctx context.Context, userID int, from, to time.Time) ([]models.DailyWorkout, error) {
	rows, err := l.db.QueryContext(ctx, liteDailyWorkoutQuery+`
		WHERE dw.user_id = ? AND dw.workout_date >= ? AND dw.workout_date < ?
		ORDER BY dw.workout_date, e.name`,
		userID, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying daily workouts: %w", err)
	}
	defer rows.Close()

	var result []models.DailyWorkout
	for rows.Next() {
		dw, err := scanLiteDailyWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily workout: %w", err)
		}
		result = append(result, dw)
	}
	return result, rows.Err()
}

func (l *Lite) RecordReps(ctx context.Context, userID, exerciseID int, date time.Time, reps int) (models.DailyWorkout, error) {
	if reps < 0 {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: negative count %d", reps)
	}
	day := date.Format(models.DateLayout)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE daily_workouts
		SET completed_reps = completed_reps + ?1,
			is_completed = completed_reps + ?1 >= target_reps
		WHERE user_id = ?2 AND exercise_id = ?3 AND workout_date = ?4
	`, reps, userID, exerciseID, day)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", err)
	} else if n == 0 {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", ErrNotFound)
	}

	row := tx.QueryRowContext(ctx, liteDailyWorkoutQuery+`
		WHERE dw.user_id = ? AND dw.exercise_id = ? AND dw.workout_date = ?`,
		userID, exerciseID, day)
	dw, err := scanLiteDailyWorkout(row)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.DailyWorkout{}, fmt.Errorf("committing reps: %w", err)
	}
	return dw, nil
}

type liteScanner interface {
	Scan(dest ...any) error
}

func scanLiteDailyWorkout(row liteScanner) (models.DailyWorkout, error) {
	var (
		dw  models.DailyWorkout
		day string
	)
	err := row.Scan(&dw.ID, &dw.UserID, &dw.ExerciseID, &dw.ExerciseName, &day,
		&dw.TargetReps, &dw.CompletedReps, &dw.IsCompleted)
	if err != nil {
		return models.DailyWorkout{}, err
	}
	dw.Date, err = time.Parse(models.DateLayout, day)
	if err != nil {
		return models.DailyWorkout{}, fmt.Errorf("parsing workout date %q: %w", day, err)
	}
	return dw, nil
}

func liteNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
