package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/metrics"
	"github.com/claude/reptrack/internal/models"
	"github.com/claude/reptrack/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dayKey struct {
	user, exercise int
	date           string
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	exercises map[int]models.Exercise
	workouts  map[dayKey]models.DailyWorkout
	recordErr error
	records   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exercises: map[int]models.Exercise{
			1: {ID: 1, Name: "squats"},
			2: {ID: 2, Name: "bicep_curls"},
			3: {ID: 3, Name: "push_ups"},
			4: {ID: 4, Name: "burpees"},
		},
		workouts: map[dayKey]models.DailyWorkout{},
	}
}

func (f *fakeStore) assign(user, exerciseID int, day time.Time, target int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workouts[dayKey{user, exerciseID, day.Format(models.DateLayout)}] = models.DailyWorkout{
		UserID: user, ExerciseID: exerciseID, ExerciseName: f.exercises[exerciseID].Name,
		Date: day, TargetReps: target,
	}
}

func (f *fakeStore) GetExercise(_ context.Context, id int) (models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exercises[id]
	if !ok {
		return models.Exercise{}, fmt.Errorf("getting exercise %d: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (f *fakeStore) GetDailyWorkout(_ context.Context, user, exerciseID int, date time.Time) (models.DailyWorkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dw, ok := f.workouts[dayKey{user, exerciseID, date.Format(models.DateLayout)}]
	if !ok {
		return models.DailyWorkout{}, fmt.Errorf("getting daily workout: %w", storage.ErrNotFound)
	}
	return dw, nil
}

func (f *fakeStore) RecordReps(_ context.Context, user, exerciseID int, date time.Time, reps int) (models.DailyWorkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return models.DailyWorkout{}, f.recordErr
	}
	k := dayKey{user, exerciseID, date.Format(models.DateLayout)}
	dw, ok := f.workouts[k]
	if !ok {
		return models.DailyWorkout{}, fmt.Errorf("recording reps: %w", storage.ErrNotFound)
	}
	dw.CompletedReps += reps
	dw.IsCompleted = dw.CompletedReps >= dw.TargetReps
	f.workouts[k] = dw
	f.records++
	return dw, nil
}

var (
	berlin, _ = time.LoadLocation("Europe/Berlin")
	// 23:30 UTC on March 1st is already March 2nd in Berlin.
	clock = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	today = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

func newTestManager(t *testing.T, store Store, strict bool) *Manager {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, log, metrics.NewTestManager(), Options{
		Location:        berlin,
		StrictExercises: strict,
		Now:             func() time.Time { return clock },
	})
}

// feed runs angles through the state machine into the manager the way the
// frame loop does.
func feed(t *testing.T, m *Manager, s Session, angles ...float64) Session {
	t.Helper()
	for _, a := range angles {
		stage, reps := exercise.Advance(s.Variant, a, s.Stage, s.CurrentReps)
		var err error
		s, err = m.ApplyFrame(s.ID, a, stage, reps)
		require.NoError(t, err)
	}
	return s
}

// TestBicepCurlEndToEnd verifies a two-curl session against a target of
// five flushes two reps and leaves the record incomplete.
func TestBicepCurlEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 2, today, 5)
	m := newTestManager(t, store, false)

	s, err := m.Start(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, exercise.BicepCurl, s.Variant)
	assert.Equal(t, exercise.StageInit, s.Stage)
	assert.Equal(t, 0, s.CurrentReps)
	assert.Equal(t, 0.0, s.Angle)
	assert.Equal(t, 5, s.TargetReps)
	assert.True(t, s.Date.Equal(today), "assignment day follows the configured zone")

	s = feed(t, m, s, 170, 35, 170, 35)
	assert.Equal(t, 2, s.CurrentReps)
	assert.Equal(t, exercise.StageDown, s.Stage)
	assert.Equal(t, 35.0, s.MinAngle)
	assert.Equal(t, 170.0, s.MaxAngle)

	sum, err := m.End(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Reps)
	assert.Equal(t, 2, sum.Workout.CompletedReps)
	assert.False(t, sum.Workout.IsCompleted)
	assert.Equal(t, 3, sum.Workout.RemainingReps())

	_, ok := m.Snapshot()
	assert.False(t, ok)
}

// TestEndCompletesAccumulatedTarget verifies reps add onto earlier sessions
// the same day and flip the completion flag once the target is met.
func TestEndCompletesAccumulatedTarget(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 2)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := m.Start(ctx, 1, 1)
		require.NoError(t, err)
		feed(t, m, s, 170, 85, 170)
		sum, err := m.End(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Reps)
		assert.Equal(t, i+1, sum.Workout.CompletedReps)
		assert.Equal(t, i == 1, sum.Workout.IsCompleted)
	}
}

// TestStartConflict verifies a second Start fails and leaves the first
// session untouched.
func TestStartConflict(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 10)
	store.assign(1, 2, today, 10)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	first, err := m.Start(ctx, 1, 1)
	require.NoError(t, err)
	first = feed(t, m, first, 170, 85, 170)

	_, err = m.Start(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = m.Start(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrConflict)

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, first, snap)
}

// TestStartUnassigned verifies exercises without an assignment today, or
// missing entirely, are rejected and leave the slot empty.
func TestStartUnassigned(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 2, today.AddDate(0, 0, -1), 5)
	store.assign(2, 2, today, 5)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	_, err := m.Start(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrUnassigned)

	_, err = m.Start(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrUnassigned)

	_, ok := m.Snapshot()
	assert.False(t, ok)
}

// TestStartUnknownExercise verifies the permissive default and strict mode.
func TestStartUnknownExercise(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 4, today, 10)
	ctx := context.Background()

	strict := newTestManager(t, store, true)
	_, err := strict.Start(ctx, 1, 4)
	assert.ErrorIs(t, err, ErrUnknownExercise)
	_, ok := strict.Snapshot()
	assert.False(t, ok)

	lenient := newTestManager(t, store, false)
	s, err := lenient.Start(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, exercise.Unknown, s.Variant)
	assert.Equal(t, 178.0, s.Profile().High)
}

// TestEndNotActive verifies End with an empty slot fails, including a second
// End right after a successful one.
func TestEndNotActive(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 10)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	_, err := m.End(ctx)
	assert.ErrorIs(t, err, ErrNotActive)

	_, err = m.Start(ctx, 1, 1)
	require.NoError(t, err)
	_, err = m.End(ctx)
	require.NoError(t, err)
	_, err = m.End(ctx)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, 1, store.records)
}

// TestEndStoreFailureKeepsSession verifies a failed flush leaves the session
// active so End can be retried without losing reps.
func TestEndStoreFailureKeepsSession(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 3, today, 10)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	s, err := m.Start(ctx, 1, 3)
	require.NoError(t, err)
	feed(t, m, s, 170, 50)

	store.recordErr = errors.New("connection reset")
	_, err = m.End(ctx)
	require.Error(t, err)

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 1, snap.CurrentReps)

	store.recordErr = nil
	sum, err := m.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Workout.CompletedReps)
}

// TestApplyFrameMonotonic verifies reps never decrease and stale session IDs
// are refused.
func TestApplyFrameMonotonic(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 10)
	mm := metrics.NewTestManager()
	m := NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)), mm, Options{Location: berlin, Now: func() time.Time { return clock }})

	s, err := m.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	s, err = m.ApplyFrame(s.ID, 170, exercise.StageUp, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentReps)

	s, err = m.ApplyFrame(s.ID, 80, exercise.StageDown, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentReps)
	assert.Equal(t, exercise.StageDown, s.Stage)
	assert.Equal(t, 3.0, testutil.ToFloat64(mm.CounterReps.WithLabelValues(string(exercise.Squat))))

	_, err = m.ApplyFrame(uuid.New(), 170, exercise.StageUp, 4)
	assert.ErrorIs(t, err, ErrNotActive)

	s, err = m.SkipFrame(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Frames)
	assert.Equal(t, 1, s.MissedFrames)
}

// TestClaimStream verifies one loop per session, release semantics and that
// a stale release does not free a later session's claim.
func TestClaimStream(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 10)
	m := newTestManager(t, store, false)
	ctx := context.Background()

	_, _, err := m.ClaimStream()
	assert.ErrorIs(t, err, ErrNotActive)

	s, err := m.Start(ctx, 1, 1)
	require.NoError(t, err)

	claimed, release, err := m.ClaimStream()
	require.NoError(t, err)
	assert.Equal(t, s.ID, claimed.ID)

	_, _, err = m.ClaimStream()
	assert.ErrorIs(t, err, ErrStreamBusy)

	release()
	release()
	_, release2, err := m.ClaimStream()
	require.NoError(t, err)

	_, err = m.End(ctx)
	require.NoError(t, err)
	_, ok := m.Current(s.ID)
	assert.False(t, ok)

	_, err = m.Start(ctx, 1, 1)
	require.NoError(t, err)
	_, release3, err := m.ClaimStream()
	require.NoError(t, err)

	release2()
	_, _, err = m.ClaimStream()
	assert.ErrorIs(t, err, ErrStreamBusy, "stale release must not free the new claim")
	release3()
}

// TestConcurrentStart verifies exactly one of many racing Starts wins.
func TestConcurrentStart(t *testing.T) {
	store := newFakeStore()
	store.assign(1, 1, today, 10)
	m := newTestManager(t, store, false)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		started  int
		conflict int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Start(context.Background(), 1, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				started++
			case errors.Is(err, ErrConflict):
				conflict++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
	assert.Equal(t, 15, conflict)
}
