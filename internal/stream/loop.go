// Package stream runs the per-frame detection loop for the active session:
// frame, landmarks, angle, state machine, overlay.
package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/metrics"
	"github.com/claude/reptrack/internal/pose"
	"github.com/claude/reptrack/internal/render"
	"github.com/claude/reptrack/internal/session"
)

// ErrFrameAcquisition wraps any failure to open or read the frame source.
// It ends the loop; the session itself stays active.
var ErrFrameAcquisition = errors.New("frame acquisition failed")

// Output is one processed frame.
type Output struct {
	Frame Frame
	// Image is the frame with the overlay drawn on it.
	Image *image.RGBA
	// Session is the state after this frame.
	Session session.Session
	// Detected is false when the estimator found no usable landmarks.
	Detected bool
}

// Loop ties a frame source and a pose estimator to the session manager.
type Loop struct {
	sessions      *session.Manager
	open          Opener
	estimator     pose.Estimator
	minVisibility float64
	log           *slog.Logger
	metrics       *metrics.Manager
}

// NewLoop creates a Loop. minVisibility drops landmarks the estimator is
// unsure about; zero accepts all.
func NewLoop(sessions *session.Manager, open Opener, estimator pose.Estimator, minVisibility float64, log *slog.Logger, m *metrics.Manager) *Loop {
	return &Loop{
		sessions:      sessions,
		open:          open,
		estimator:     estimator,
		minVisibility: minVisibility,
		log:           log,
		metrics:       m,
	}
}

// Frames returns the frame sequence of the active session.
//
// Iteration claims the session's stream and opens the source; both are
// released exactly once when the loop exits, whether the caller stops
// ranging, ctx is cancelled, the session ends or the source fails. Before
// every frame the loop checks ctx and that its session is still the active
// one; that check is the only cancellation point besides ctx. Each frame is
// fully processed before it is yielded, and the next one is not read until
// yield returns.
//
// Errors are yielded at most once, with a nil Output, and end the sequence:
// session.ErrNotActive or session.ErrStreamBusy when the stream cannot be
// claimed, ErrFrameAcquisition when the source fails. A source returning
// io.EOF ends the sequence without an error.
func (l *Loop) Frames(ctx context.Context) iter.Seq2[*Output, error] {
	return func(yield func(*Output, error) bool) {
		s, release, err := l.sessions.ClaimStream()
		if err != nil {
			yield(nil, err)
			return
		}
		defer release()

		src, err := l.open(ctx)
		if err != nil {
			l.metrics.CounterFrames.WithLabelValues(metrics.FrameSource).Inc()
			yield(nil, fmt.Errorf("%w: opening source: %w", ErrFrameAcquisition, err))
			return
		}
		defer func() {
			if err := src.Close(); err != nil {
				l.log.Warn("closing frame source", "error", err)
			}
		}()

		log := l.log.With("session", s.ID)
		log.Info("frame loop started", "exercise", s.ExerciseName)
		defer log.Info("frame loop stopped")

		for {
			if ctx.Err() != nil {
				return
			}
			cur, ok := l.sessions.Current(s.ID)
			if !ok {
				return
			}

			frame, err := src.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				l.metrics.CounterFrames.WithLabelValues(metrics.FrameSource).Inc()
				log.Error("frame acquisition failed", "error", err)
				yield(nil, fmt.Errorf("%w: %w", ErrFrameAcquisition, err))
				return
			}

			out, err := l.process(ctx, log, cur, frame)
			if err != nil {
				// The session ended while the frame was in flight.
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

func (l *Loop) process(ctx context.Context, log *slog.Logger, cur session.Session, frame Frame) (*Output, error) {
	start := time.Now()
	defer func() { l.metrics.HistFrameDuration.Observe(time.Since(start).Seconds()) }()

	landmarks, err := l.estimator.Estimate(ctx, frame.Image)
	if err != nil {
		l.metrics.CounterFrames.WithLabelValues(metrics.FrameEstimator).Inc()
		log.Warn("pose estimation failed, skipping detection", "frame", frame.Seq, "error", err)
		landmarks = nil
	}

	profile := cur.Profile()
	a, b, c, detected := landmarks.Points(profile.Joint, l.minVisibility)
	if detected {
		angle := pose.Angle(a, b, c)
		stage, reps := exercise.Advance(cur.Variant, angle, cur.Stage, cur.CurrentReps)
		cur, err = l.sessions.ApplyFrame(cur.ID, angle, stage, reps)
		if err == nil {
			l.metrics.CounterFrames.WithLabelValues(metrics.FrameCounted).Inc()
		}
	} else {
		cur, err = l.sessions.SkipFrame(cur.ID)
		if err == nil {
			l.metrics.CounterFrames.WithLabelValues(metrics.FrameNoPose).Inc()
		}
	}
	if err != nil {
		return nil, err
	}

	img := render.Overlay(frame.Image, render.State{
		Label:    profile.Label,
		Reps:     cur.CurrentReps,
		Stage:    string(cur.Stage),
		Progress: profile.Progress(cur.Angle),
	})
	return &Output{Frame: frame, Image: img, Session: cur, Detected: detected}, nil
}
