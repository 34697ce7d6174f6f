package storage

import (
	"context"
	"fmt"

	"github.com/claude/reptrack/internal/models"
)

// GetOrCreateUser finds or creates a user by Tailscale login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}

// GetUser returns the user with the given ID.
func (db *DB) GetUser(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login, display_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return models.User{}, fmt.Errorf("getting user %d: %w", id, notFound(err))
	}
	return u, nil
}
