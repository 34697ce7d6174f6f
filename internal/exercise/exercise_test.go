package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run feeds angles through Advance from the init stage.
func run(v Variant, angles ...float64) (Stage, int) {
	stage, reps := StageInit, 0
	for _, a := range angles {
		stage, reps = Advance(v, a, stage, reps)
	}
	return stage, reps
}

// TestSquatHysteresis verifies a standing→mid→standing sequence that never
// crosses the bottom threshold credits nothing, while a full swing credits
// exactly one rep on the way back up.
func TestSquatHysteresis(t *testing.T) {
	stage, reps := run(Squat, 170, 100, 170)
	assert.Equal(t, StageUp, stage)
	assert.Equal(t, 0, reps)

	stage, reps = run(Squat, 170, 85, 170)
	assert.Equal(t, StageUp, stage)
	assert.Equal(t, 1, reps)

	// The rep lands on the down→up edge, not on reaching the bottom.
	stage, reps = run(Squat, 170, 85)
	assert.Equal(t, StageDown, stage)
	assert.Equal(t, 0, reps)
}

// TestPushupCountsOnBottom verifies push-ups credit on reaching the bottom.
func TestPushupCountsOnBottom(t *testing.T) {
	stage, reps := run(Pushup, 170, 50)
	assert.Equal(t, StageDown, stage)
	assert.Equal(t, 1, reps)

	_, reps = run(Pushup, 170, 50, 170, 50, 120, 55)
	assert.Equal(t, 2, reps)
}

// TestBicepCurlFromInit verifies the first extension leaves init without a
// rep and each following curl-in credits one.
func TestBicepCurlFromInit(t *testing.T) {
	stage, reps := Advance(BicepCurl, 170, StageInit, 0)
	assert.Equal(t, StageUp, stage)
	assert.Equal(t, 0, reps)

	stage, reps = run(BicepCurl, 170, 35, 170, 35)
	assert.Equal(t, StageDown, stage)
	assert.Equal(t, 2, reps)
}

// TestInitIgnoresContraction verifies a contracted start does not move out
// of init, so the first rep needs a full extension first.
func TestInitIgnoresContraction(t *testing.T) {
	for _, v := range append(Variants(), Unknown) {
		stage, reps := Advance(v, 1, StageInit, 0)
		assert.Equal(t, StageInit, stage, v)
		assert.Equal(t, 0, reps, v)
	}
}

// TestThresholdsAreStrict verifies angles exactly on a threshold sit in the
// hysteresis band.
func TestThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		variant Variant
		angle   float64
		stage   Stage
	}{
		{Squat, 155, StageDown},
		{Squat, 90, StageUp},
		{Pushup, 160, StageDown},
		{Pushup, 60, StageUp},
		{BicepCurl, 160, StageInit},
		{BicepCurl, 40, StageUp},
	}
	for _, tt := range tests {
		got, reps := Advance(tt.variant, tt.angle, tt.stage, 3)
		assert.Equal(t, tt.stage, got, "%s at %.0f", tt.variant, tt.angle)
		assert.Equal(t, 3, reps)
	}
}

// TestRepsNeverDecrease verifies monotonicity across a noisy sequence.
func TestRepsNeverDecrease(t *testing.T) {
	angles := []float64{170, 150, 30, 45, 39, 161, 10, 179, 0, 180, 90, 20, 175}
	for _, v := range append(Variants(), Unknown) {
		stage, reps := StageInit, 0
		for _, a := range angles {
			var next int
			stage, next = Advance(v, a, stage, reps)
			require.GreaterOrEqual(t, next, reps, "%s at %.0f", v, a)
			require.LessOrEqual(t, next, reps+1)
			reps = next
		}
	}
}

// TestUnknownVariantUsesDefaultBand verifies unrecognized variants fall back
// to the 178/25 band instead of failing.
func TestUnknownVariantUsesDefaultBand(t *testing.T) {
	p := ProfileFor(Variant("jumping_jack"))
	assert.Equal(t, Unknown, p.Variant)
	assert.Equal(t, 178.0, p.High)
	assert.Equal(t, 25.0, p.Low)

	_, reps := run(Variant("jumping_jack"), 179, 170, 24)
	assert.Equal(t, 1, reps)
}

// TestLookup verifies stored catalog names resolve to variants.
func TestLookup(t *testing.T) {
	cases := []struct {
		name  string
		want  Variant
		known bool
	}{
		{"squat", Squat, true},
		{"squats", Squat, true},
		{"Push_Ups", Pushup, true},
		{"pushup", Pushup, true},
		{"bicep_curls", BicepCurl, true},
		{"Bicep Curl", BicepCurl, true},
		{"  bicep_curl ", BicepCurl, true},
		{"deadlift", Unknown, false},
		{"", Unknown, false},
	}
	for _, tc := range cases {
		got, known := Lookup(tc.name)
		assert.Equal(t, tc.want, got, tc.name)
		assert.Equal(t, tc.known, known, tc.name)
	}
}

// TestProgress verifies the overlay percentage is clamped to the band.
func TestProgress(t *testing.T) {
	p := ProfileFor(Squat)
	assert.Equal(t, 0.0, p.Progress(10))
	assert.Equal(t, 100.0, p.Progress(179))
	assert.InDelta(t, 50.0, p.Progress(122.5), 1e-9)
}
