package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/metrics"
	"github.com/claude/reptrack/internal/models"
	"github.com/claude/reptrack/internal/storage"
	"github.com/google/uuid"
)

// Options tunes a Manager. The zero value is usable.
type Options struct {
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	// StrictExercises rejects exercises whose name resolves to no variant
	// instead of tracking them with the default band.
	StrictExercises bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager is the single-slot owner of the active session. All methods are
// safe for concurrent use; the slot is guarded by one mutex, held across the
// store calls of Start and End so that neither can interleave.
type Manager struct {
	store   Store
	log     *slog.Logger
	metrics *metrics.Manager
	loc     *time.Location
	strict  bool
	now     func() time.Time

	mu        sync.Mutex
	active    *Session
	claim     uint64
	lastClaim uint64
}

// NewManager creates a Manager with an empty slot.
func NewManager(store Store, log *slog.Logger, m *metrics.Manager, opts Options) *Manager {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:   store,
		log:     log,
		metrics: m,
		loc:     opts.Location,
		strict:  opts.StrictExercises,
		now:     opts.Now,
	}
}

// Start begins a session for the user's assignment of exerciseID today.
func (m *Manager) Start(ctx context.Context, userID, exerciseID int) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.reject("conflict")
		return Session{}, fmt.Errorf("%w: %s (%s)", ErrConflict, m.active.ExerciseName, m.active.ID)
	}

	ex, err := m.store.GetExercise(ctx, exerciseID)
	if errors.Is(err, storage.ErrNotFound) {
		m.reject("no_exercise")
		return Session{}, fmt.Errorf("exercise %d: %w", exerciseID, ErrUnassigned)
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading exercise: %w", err)
	}

	variant, known := exercise.Lookup(ex.Name)
	if !known {
		if m.strict {
			m.reject("unknown_exercise")
			return Session{}, fmt.Errorf("%w: %q", ErrUnknownExercise, ex.Name)
		}
		m.log.Warn("exercise has no variant, using default thresholds", "exercise", ex.Name)
	}

	startedAt := m.now()
	today := models.Day(startedAt, m.loc)
	dw, err := m.store.GetDailyWorkout(ctx, userID, ex.ID, today)
	if errors.Is(err, storage.ErrNotFound) {
		m.reject("unassigned")
		return Session{}, fmt.Errorf("%s on %s: %w", ex.Name, today.Format(models.DateLayout), ErrUnassigned)
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading daily workout: %w", err)
	}

	m.active = &Session{
		ID:           uuid.New(),
		UserID:       userID,
		ExerciseID:   ex.ID,
		ExerciseName: ex.Name,
		Variant:      variant,
		TargetReps:   dw.TargetReps,
		Stage:        exercise.StageInit,
		StartedAt:    startedAt,
		Date:         today,
	}
	m.claim = 0

	m.metrics.CounterSessions.WithLabelValues(metrics.SessionStarted).Inc()
	m.metrics.GaugeActiveSession.Set(1)
	m.log.Info("workout session started",
		"session", m.active.ID,
		"user_id", userID,
		"exercise", ex.Name,
		"variant", variant,
		"target_reps", dw.TargetReps,
	)
	return *m.active, nil
}

func (m *Manager) reject(reason string) {
	m.metrics.CounterSessions.WithLabelValues(metrics.SessionRejected).Inc()
	m.log.Debug("session start rejected", "reason", reason)
}

// ApplyFrame records one processed frame's state machine output on session id.
// reps below the current count are ignored.
func (m *Manager) ApplyFrame(id uuid.UUID, angle float64, stage exercise.Stage, reps int) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}

	if reps > s.CurrentReps {
		m.metrics.CounterReps.WithLabelValues(string(s.Variant)).Add(float64(reps - s.CurrentReps))
		s.CurrentReps = reps
	}
	if s.Frames == s.MissedFrames {
		s.MinAngle, s.MaxAngle = angle, angle
	} else {
		s.MinAngle = min(s.MinAngle, angle)
		s.MaxAngle = max(s.MaxAngle, angle)
	}
	s.Angle = angle
	s.Stage = stage
	s.Frames++
	return *s, nil
}

// SkipFrame records a processed frame without landmarks on session id.
func (m *Manager) SkipFrame(id uuid.UUID) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.Frames++
	s.MissedFrames++
	return *s, nil
}

func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	if m.active == nil || m.active.ID != id {
		return nil, ErrNotActive
	}
	return m.active, nil
}

// End flushes the session's reps into its daily record and clears the slot.
// When the store write fails the session stays active and End can be retried.
func (m *Manager) End(ctx context.Context) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Summary{}, ErrNotActive
	}
	s := *m.active

	dw, err := m.store.RecordReps(ctx, s.UserID, s.ExerciseID, s.Date, s.CurrentReps)
	if err != nil {
		return Summary{}, fmt.Errorf("recording %d reps for session %s: %w", s.CurrentReps, s.ID, err)
	}

	m.active = nil
	m.claim = 0

	sum := Summary{
		Session:  s,
		Reps:     s.CurrentReps,
		Duration: m.now().Sub(s.StartedAt),
		Workout:  dw,
	}
	m.metrics.CounterSessions.WithLabelValues(metrics.SessionEnded).Inc()
	m.metrics.GaugeActiveSession.Set(0)
	m.log.Info("workout session ended",
		"session", s.ID,
		"exercise", s.ExerciseName,
		"reps", s.CurrentReps,
		"completed_reps", dw.CompletedReps,
		"target_reps", dw.TargetReps,
		"is_completed", dw.IsCompleted,
		"duration", sum.Duration,
	)
	return sum, nil
}

// Snapshot returns a copy of the active session, if any.
func (m *Manager) Snapshot() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// Current returns the active session if it is still session id. A false
// result tells a frame loop its session has ended.
func (m *Manager) Current(id uuid.UUID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, false
	}
	return *s, true
}

// ClaimStream reserves the active session for one frame loop. release frees
// the claim; calling it after the session ended or more than once is a no-op.
func (m *Manager) ClaimStream() (Session, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Session{}, nil, ErrNotActive
	}
	if m.claim != 0 {
		return Session{}, nil, ErrStreamBusy
	}
	m.lastClaim++
	token := m.lastClaim
	m.claim = token

	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.claim == token {
			m.claim = 0
		}
	}
	return *m.active, release, nil
}
