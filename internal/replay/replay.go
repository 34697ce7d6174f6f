// Package replay runs recorded landmark frames through the angle calculation
// and the repetition state machine without a camera or estimator.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/pose"
)

// record is one JSONL line, the same shape the pose sidecar returns.
type record struct {
	Landmarks pose.Landmarks `json:"landmarks"`
}

// Step is the machine state after one frame.
type Step struct {
	Frame    int            `json:"frame"`
	Detected bool           `json:"detected"`
	Angle    float64        `json:"angle"`
	Stage    exercise.Stage `json:"stage"`
	Reps     int            `json:"reps"`
}

// Result summarizes a replay. Angle statistics cover detected frames only.
type Result struct {
	Variant   exercise.Variant `json:"variant"`
	Frames    int              `json:"frames"`
	Detected  int              `json:"detected"`
	Reps      int              `json:"reps"`
	Stage     exercise.Stage   `json:"stage"`
	MeanAngle float64          `json:"mean_angle"`
	StdAngle  float64          `json:"std_angle"`
	MinAngle  float64          `json:"min_angle"`
	MaxAngle  float64          `json:"max_angle"`
}

// Run reads JSONL landmark records from r and feeds them through the state
// machine for v. Blank lines are skipped; a record with no landmarks is a
// frame without a detected body. fn, if set, sees every step.
func Run(r io.Reader, v exercise.Variant, minVisibility float64, fn func(Step)) (Result, error) {
	profile := exercise.ProfileFor(v)
	res := Result{Variant: profile.Variant, Stage: exercise.StageInit}
	var angles []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return res, fmt.Errorf("line %d: decoding landmarks: %w", line, err)
		}

		res.Frames++
		step := Step{Frame: res.Frames, Stage: res.Stage, Reps: res.Reps}
		if a, b, c, ok := rec.Landmarks.Points(profile.Joint, minVisibility); ok {
			angle := pose.Angle(a, b, c)
			res.Stage, res.Reps = exercise.Advance(profile.Variant, angle, res.Stage, res.Reps)
			angles = append(angles, angle)
			res.Detected++
			step = Step{Frame: res.Frames, Detected: true, Angle: angle, Stage: res.Stage, Reps: res.Reps}
		}
		if fn != nil {
			fn(step)
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading landmarks: %w", err)
	}

	if len(angles) > 0 {
		res.MeanAngle, res.StdAngle = stat.MeanStdDev(angles, nil)
		if len(angles) == 1 {
			res.StdAngle = 0
		}
		res.MinAngle = floats.Min(angles)
		res.MaxAngle = floats.Max(angles)
	}
	return res, nil
}
