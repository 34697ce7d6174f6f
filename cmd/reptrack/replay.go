package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/reptrack/internal/exercise"
	"github.com/claude/reptrack/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <landmarks.jsonl>",
	Short: "Count reps in recorded landmark frames",
	Long: `Feeds a JSONL file of pose landmarks (one {"landmarks": [...]} object per
frame, "-" for stdin) through the rep counter and prints stage, angle and
count per frame followed by a range-of-motion summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayExercise      string
	replayMinVisibility float64
	replayJSON          bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayExercise, "exercise", "e", "bicep_curl", "Exercise name (squat, pushup, bicep_curl)")
	replayCmd.Flags().Float64Var(&replayMinVisibility, "min-visibility", 0.5, "Ignore joints the estimator is less sure about")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Output as JSON lines")
}

func runReplay(cmd *cobra.Command, args []string) error {
	variant, ok := exercise.Lookup(replayExercise)
	if !ok {
		return fmt.Errorf("unknown exercise %q", replayExercise)
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	out := cmd.OutOrStdout()

	enc := json.NewEncoder(out)
	res, err := replay.Run(in, variant, replayMinVisibility, func(s replay.Step) {
		switch {
		case replayJSON:
			enc.Encode(s)
		case s.Detected:
			fmt.Fprintf(out, "frame %4d  angle %6.1f  stage %-4s  reps %d\n", s.Frame, s.Angle, s.Stage, s.Reps)
		default:
			fmt.Fprintf(out, "frame %4d  no pose\n", s.Frame)
		}
	})
	if err != nil {
		return err
	}

	if replayJSON {
		return enc.Encode(res)
	}
	fmt.Fprintf(out, "\n%s: %d reps over %d frames (%d with pose)\n", exercise.ProfileFor(variant).Label, res.Reps, res.Frames, res.Detected)
	if res.Detected > 0 {
		fmt.Fprintf(out, "angle mean %.1f  stddev %.1f  range %.1f..%.1f\n", res.MeanAngle, res.StdAngle, res.MinAngle, res.MaxAngle)
	}
	return nil
}
