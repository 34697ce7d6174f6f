package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/reptrack/internal/models"
)

type fakeStore struct {
	rows     []models.DailyWorkout
	err      error
	from, to time.Time
}

func (f *fakeStore) ListDailyWorkouts(_ context.Context, userID int, from, to time.Time) ([]models.DailyWorkout, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []models.DailyWorkout
	for _, r := range f.rows {
		if r.UserID == userID && !r.Date.Before(from) && r.Date.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func workout(ex int, name string, day time.Time, target, done int) models.DailyWorkout {
	return models.DailyWorkout{
		UserID:        1,
		ExerciseID:    ex,
		ExerciseName:  name,
		Date:          day,
		TargetReps:    target,
		CompletedReps: done,
		IsCompleted:   done >= target,
	}
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	// 23:30 UTC is already the next day in Berlin.
	now := func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC) }
	return NewService(store, berlin, now, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestAnnotateRemainingNeverNegative verifies over-achieved targets report zero remaining.
func TestAnnotateRemainingNeverNegative(t *testing.T) {
	got := Annotate([]models.DailyWorkout{
		workout(1, "squats", date(2026, 3, 2), 10, 4),
		workout(2, "push_ups", date(2026, 3, 2), 10, 13),
	})
	want := []int{6, 0}
	for i, a := range got {
		if a.RemainingReps != want[i] {
			t.Errorf("%s remaining = %d, want %d", a.ExerciseName, a.RemainingReps, want[i])
		}
	}
}

// TestTodayUsesLocalCalendarDay verifies "today" follows the configured timezone.
func TestTodayUsesLocalCalendarDay(t *testing.T) {
	store := &fakeStore{rows: []models.DailyWorkout{
		workout(1, "squats", date(2026, 3, 1), 10, 0),
		workout(1, "squats", date(2026, 3, 2), 12, 5),
	}}
	s := newTestService(t, store)

	got, err := s.TodayWorkouts(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []Assignment{{DailyWorkout: store.rows[1], RemainingReps: 7}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TodayWorkouts mismatch (-want +got):\n%s", diff)
	}
	if !store.from.Equal(date(2026, 3, 2)) || !store.to.Equal(date(2026, 3, 3)) {
		t.Errorf("range = [%v, %v), want one day from 2026-03-02", store.from, store.to)
	}
}

// TestReminders verifies only incomplete assignments are reported.
func TestReminders(t *testing.T) {
	store := &fakeStore{rows: []models.DailyWorkout{
		workout(1, "squats", date(2026, 3, 2), 12, 12),
		workout(2, "bicep_curls", date(2026, 3, 2), 12, 3),
		workout(3, "push_ups", date(2026, 3, 2), 12, 0),
	}}
	s := newTestService(t, store)

	got, err := s.Reminders(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []Reminder{
		{ExerciseID: 2, ExerciseName: "bicep_curls", RemainingReps: 9},
		{ExerciseID: 3, ExerciseName: "push_ups", RemainingReps: 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reminders mismatch (-want +got):\n%s", diff)
	}
}

// TestRemindersEmptyWhenDone verifies a finished day has no reminders.
func TestRemindersEmptyWhenDone(t *testing.T) {
	store := &fakeStore{rows: []models.DailyWorkout{workout(1, "squats", date(2026, 3, 2), 5, 6)}}
	got, err := newTestService(t, store).Reminders(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Reminders = %v, want none", got)
	}
}

// TestParseMonth verifies explicit and default month selection.
func TestParseMonth(t *testing.T) {
	berlin, _ := time.LoadLocation("Europe/Berlin")
	now := time.Date(2026, 3, 31, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", date(2026, 4, 1), false},
		{"2026-02", date(2026, 2, 1), false},
		{"2024-12", date(2024, 12, 1), false},
		{"2026-13", time.Time{}, true},
		{"March", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMonth(tt.in, now, berlin)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMonth) {
				t.Errorf("ParseMonth(%q) error = %v, want ErrInvalidMonth", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMonth(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseMonth(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestBuildMonthShape verifies day count and Monday-based start weekday.
func TestBuildMonthShape(t *testing.T) {
	tests := []struct {
		first       time.Time
		days, start int
	}{
		{date(2026, 3, 1), 31, 6}, // Sunday
		{date(2026, 2, 1), 28, 6},
		{date(2024, 2, 1), 29, 3}, // Thursday, leap year
		{date(2026, 6, 1), 30, 0}, // Monday
	}
	for _, tt := range tests {
		m := BuildMonth(tt.first, nil)
		if m.DaysInMonth != tt.days || len(m.Days) != tt.days {
			t.Errorf("%s: days = %d (%d cells), want %d", tt.first.Format("2006-01"), m.DaysInMonth, len(m.Days), tt.days)
		}
		if m.StartWeekday != tt.start {
			t.Errorf("%s: start_weekday = %d, want %d", tt.first.Format("2006-01"), m.StartWeekday, tt.start)
		}
	}
}

// TestCalendarGroupsByDay verifies workouts land on their own date cell.
func TestCalendarGroupsByDay(t *testing.T) {
	store := &fakeStore{rows: []models.DailyWorkout{
		workout(1, "squats", date(2026, 3, 2), 10, 10),
		workout(2, "push_ups", date(2026, 3, 2), 10, 2),
		workout(1, "squats", date(2026, 3, 31), 14, 0),
		workout(1, "squats", date(2026, 4, 1), 16, 0),
	}}
	s := newTestService(t, store)

	m, err := s.Calendar(context.Background(), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Year != 2026 || m.Month != 3 {
		t.Fatalf("month = %d-%02d, want 2026-03", m.Year, m.Month)
	}

	got := map[string][]string{}
	for _, d := range m.Days {
		for _, w := range d.Workouts {
			got[d.Date] = append(got[d.Date], w.ExerciseName)
		}
	}
	want := map[string][]string{
		"2026-03-02": {"squats", "push_ups"},
		"2026-03-31": {"squats"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("calendar mismatch (-want +got):\n%s", diff)
	}
	if m.Days[1].Workouts[1].RemainingReps != 8 {
		t.Errorf("push_ups remaining = %d, want 8", m.Days[1].Workouts[1].RemainingReps)
	}
}

// TestCalendarInvalidMonth verifies a malformed month never reaches the store.
func TestCalendarInvalidMonth(t *testing.T) {
	store := &fakeStore{}
	_, err := newTestService(t, store).Calendar(context.Background(), 1, "2026/03")
	if !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("err = %v, want ErrInvalidMonth", err)
	}
	if !store.from.IsZero() {
		t.Error("store was queried for an invalid month")
	}
}

// TestStoreErrorWrapped verifies storage failures propagate.
func TestStoreErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestService(t, &fakeStore{err: boom}).TodayWorkouts(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
