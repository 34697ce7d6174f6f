package exercise

// Advance applies one frame's angle to the repetition state machine.
//
// Above the profile's High threshold the stage moves from down (or init, when
// the profile allows it) to up. Below Low it moves from up to down. Angles in
// between leave the state untouched, so jitter around a single boundary can
// never produce a rep. reps only ever grows.
func Advance(v Variant, angle float64, stage Stage, reps int) (Stage, int) {
	p := ProfileFor(v)

	switch {
	case angle > p.High:
		if stage == StageDown || (stage == StageInit && p.FromInit) {
			if stage == StageDown && p.Counted == EdgeDownToUp {
				reps++
			}
			return StageUp, reps
		}
	case angle < p.Low:
		if stage == StageUp {
			if p.Counted == EdgeUpToDown {
				reps++
			}
			return StageDown, reps
		}
	}
	return stage, reps
}
