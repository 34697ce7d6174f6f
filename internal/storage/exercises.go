package storage

import (
	"context"
	"fmt"

	"github.com/claude/reptrack/internal/models"
)

// ListExercises returns the exercise catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
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

// GetExercise returns one exercise by ID.
func (db *DB) GetExercise(ctx context.Context, id int) (models.Exercise, error) {
	var e models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, description FROM exercises WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Description)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("getting exercise %d: %w", id, notFound(err))
	}
	return e, nil
}

// UpsertExercise creates an exercise or refreshes the description of the
// existing one with the same name.
func (db *DB) UpsertExercise(ctx context.Context, name, description string) (models.Exercise, error) {
	e := models.Exercise{Name: name, Description: description}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO exercises (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`, name, description).Scan(&e.ID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("upserting exercise %s: %w", name, err)
	}
	return e, nil
}
