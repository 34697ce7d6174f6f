package mcp

import (
	"context"

	"github.com/claude/reptrack/internal/models"
	"github.com/claude/reptrack/internal/schedule"
	"github.com/claude/reptrack/internal/session"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process) and
// HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	TodayWorkouts(ctx context.Context, userID int) ([]schedule.Assignment, error)
	Reminders(ctx context.Context, userID int) ([]schedule.Reminder, error)
	Calendar(ctx context.Context, userID int, month string) (schedule.Month, error)
	// ActiveSession returns nil when no session is running.
	ActiveSession(ctx context.Context) (*session.Session, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// ExerciseLister is the catalog part of the store.
type ExerciseLister interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Local serves tools from the components of a running server.
type Local struct {
	*schedule.Service
	Sessions  *session.Manager
	Exercises ExerciseLister
}

// Compile-time checks: both sources satisfy DataSource.
var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

func (l *Local) ActiveSession(context.Context) (*session.Session, error) {
	s, ok := l.Sessions.Snapshot()
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (l *Local) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return l.Exercises.ListExercises(ctx)
}
