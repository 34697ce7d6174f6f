package server

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/claude/reptrack/internal/render"
	"github.com/claude/reptrack/internal/schedule"
	"github.com/claude/reptrack/internal/session"
	"github.com/claude/reptrack/internal/stream"
)

// FeedBoundary separates JPEG parts in the workout feed.
const FeedBoundary = "frame"

type startRequest struct {
	ExerciseID int `json:"exercise_id"`
}

// exerciseID reads exercise_id from a JSON body or, for HTML forms, from
// the form fields.
func exerciseID(r *http.Request) (int, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return strconv.Atoi(r.FormValue("exercise_id"))
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, err
	}
	return req.ExerciseID, nil
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := exerciseID(r)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "exercise_id is required"})
		return
	}

	sess, err := s.sessions.Start(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"session": sess,
		"exercise": map[string]any{
			"id":          sess.ExerciseID,
			"name":        sess.ExerciseName,
			"target_reps": sess.TargetReps,
		},
	})
}

func (s *Server) handleEndWorkout(w http.ResponseWriter, r *http.Request) {
	sum, err := s.sessions.End(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"reps":     sum.Reps,
		"duration": sum.Duration.String(),
		"session":  sum.Session,
		"workout":  sum.Workout,
	})
}

func (s *Server) handleActiveWorkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Snapshot()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "error": session.ErrNotActive.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"session":        sess,
		"remaining_reps": sess.RemainingReps(),
	})
}

// handleFeed streams the active session's annotated frames as
// multipart/x-mixed-replace. Errors before the first frame are reported as
// JSON; once streaming has begun the feed just ends.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(FeedBoundary); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	started := false
	for out, err := range s.loop.Frames(r.Context()) {
		if err != nil {
			if !started {
				s.writeSessionError(w, err)
				return
			}
			s.log.Warn("feed ended", "error", err)
			return
		}
		if !started {
			w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+FeedBoundary)
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}

		part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
		if err != nil {
			s.log.Debug("feed client gone", "error", err)
			return
		}
		if err := render.EncodeJPEG(part, out.Image, s.jpegQuality); err != nil {
			s.log.Debug("feed client gone", "error", err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return
		}
	}
	if started {
		mw.Close()
	}
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.schedule.TodayWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     s.schedule.Today().Format("2006-01-02"),
		"workouts": nonNil(workouts),
	})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	pending, err := s.schedule.Reminders(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":                s.schedule.Today().Format("2006-01-02"),
		"incomplete_workouts": nonNil(pending),
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := s.schedule.Calendar(r.Context(), userIDFromContext(r), r.URL.Query().Get("month"))
	if errors.Is(err, schedule.ErrInvalidMonth) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, month)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.ListExercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(exercises))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// writeSessionError maps session and loop errors to status codes.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrConflict), errors.Is(err, session.ErrStreamBusy):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrUnassigned),
		errors.Is(err, session.ErrUnknownExercise):
		status = http.StatusBadRequest
	case errors.Is(err, stream.ErrFrameAcquisition):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("session request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"status": "error", "error": err.Error()})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
