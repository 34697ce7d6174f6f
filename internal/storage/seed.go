package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// SeedExercise is one catalog entry created by Seed.
type SeedExercise struct {
	Name        string
	Description string
}

// DefaultExercises is the demo catalog.
var DefaultExercises = []SeedExercise{
	{"squats", "A lower-body strength exercise."},
	{"bicep_curls", "An arm-strengthening exercise."},
	{"push_ups", "A full-body exercise for core and upper body."},
}

// DefaultUsers are the demo logins created by Seed.
var DefaultUsers = []string{"john", "jane", "alice"}

// SeedOptions controls Seed.
type SeedOptions struct {
	Users     []string
	Exercises []SeedExercise
	// Start is the first assigned day; Days consecutive days get assignments.
	Start time.Time
	Days  int
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Users       int
	Exercises   int
	Assignments int
}

// Seed creates users, the exercise catalog and Days of assignments per user
// and exercise, with a target of 10 + 2*offset reps on day offset. Existing
// rows are kept, so Seed can be rerun safely.
func Seed(ctx context.Context, st Store, opts SeedOptions) (SeedResult, error) {
	if opts.Users == nil {
		opts.Users = DefaultUsers
	}
	if opts.Exercises == nil {
		opts.Exercises = DefaultExercises
	}
	if opts.Days <= 0 {
		opts.Days = 7
	}

	var res SeedResult
	userIDs := make([]int, 0, len(opts.Users))
	for _, login := range opts.Users {
		id, err := st.GetOrCreateUser(ctx, login, "")
		if err != nil {
			return res, fmt.Errorf("seeding users: %w", err)
		}
		userIDs = append(userIDs, id)
		res.Users++
	}

	exerciseIDs := make([]int, 0, len(opts.Exercises))
	for _, e := range opts.Exercises {
		ex, err := st.UpsertExercise(ctx, e.Name, e.Description)
		if err != nil {
			return res, fmt.Errorf("seeding exercises: %w", err)
		}
		exerciseIDs = append(exerciseIDs, ex.ID)
		res.Exercises++
	}

	// Assignment errors are collected, not returned early.
	var errs error
	for _, uid := range userIDs {
		for _, eid := range exerciseIDs {
			for offset := 0; offset < opts.Days; offset++ {
				day := opts.Start.AddDate(0, 0, offset)
				created, err := st.AssignWorkout(ctx, uid, eid, day, 10+2*offset)
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				if created {
					res.Assignments++
				}
			}
		}
	}
	return res, errs
}
