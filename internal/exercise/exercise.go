// Package exercise maps joint angles onto repetition stages and counts reps.
package exercise

import (
	"strings"

	"github.com/claude/reptrack/internal/pose"
)

// Variant identifies which state machine profile applies.
type Variant string

const (
	Squat     Variant = "squat"
	Pushup    Variant = "pushup"
	BicepCurl Variant = "bicep_curl"
	Unknown   Variant = "unknown"
)

// Stage is the phase of a repetition cycle.
type Stage string

const (
	StageInit Stage = "init"
	StageUp   Stage = "up"
	StageDown Stage = "down"
)

// Edge is the stage transition that credits a rep.
type Edge int

const (
	// EdgeDownToUp credits a rep on reaching the extended position.
	EdgeDownToUp Edge = iota
	// EdgeUpToDown credits a rep on reaching the contracted position.
	EdgeUpToDown
)

// Profile is the per-variant data driving Advance and the overlay.
type Profile struct {
	Variant Variant
	Label   string
	// High is the extended threshold; an angle strictly above it reaches StageUp.
	High float64
	// Low is the contracted threshold; an angle strictly below it reaches StageDown.
	Low float64
	// Counted is the edge that credits a rep.
	Counted Edge
	// FromInit lets the first extension leave StageInit without a rep.
	FromInit bool
	// Joint is the landmark triple measured each frame.
	Joint pose.Joint
}

var (
	armJoint = pose.Joint{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist}
	legJoint = pose.Joint{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle}
)

var profiles = map[Variant]Profile{
	Squat: {
		Variant: Squat, Label: "SQUAT",
		High: 155, Low: 90,
		Counted:  EdgeDownToUp,
		FromInit: true,
		Joint:    legJoint,
	},
	Pushup: {
		Variant: Pushup, Label: "PUSHUP",
		High: 160, Low: 60,
		Counted:  EdgeUpToDown,
		FromInit: true,
		Joint:    armJoint,
	},
	BicepCurl: {
		Variant: BicepCurl, Label: "BICEP CURL",
		High: 160, Low: 40,
		Counted:  EdgeUpToDown,
		FromInit: true,
		Joint:    armJoint,
	},
	Unknown: {
		Variant: Unknown, Label: "EXERCISE",
		High: 178, Low: 25,
		Counted:  EdgeUpToDown,
		FromInit: true,
		Joint:    armJoint,
	},
}

// aliases maps lowercased stored exercise names to variants. Covers the
// canonical names and the plural forms used by seeded catalogs.
var aliases = map[string]Variant{
	"squat":       Squat,
	"squats":      Squat,
	"pushup":      Pushup,
	"pushups":     Pushup,
	"push_up":     Pushup,
	"push_ups":    Pushup,
	"push-up":     Pushup,
	"push-ups":    Pushup,
	"bicep_curl":  BicepCurl,
	"bicep_curls": BicepCurl,
	"bicep-curl":  BicepCurl,
	"bicep-curls": BicepCurl,
	"biceps_curl": BicepCurl,
	"curl":        BicepCurl,
	"curls":       BicepCurl,
}

// Lookup resolves an exercise name to its variant. Unrecognized names return
// Unknown and false.
func Lookup(name string) (Variant, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	v, ok := aliases[key]
	if !ok {
		return Unknown, false
	}
	return v, true
}

// ProfileFor returns the profile for v, falling back to the Unknown profile.
func ProfileFor(v Variant) Profile {
	if p, ok := profiles[v]; ok {
		return p
	}
	return profiles[Unknown]
}

// Variants lists the recognized variants.
func Variants() []Variant {
	return []Variant{Squat, Pushup, BicepCurl}
}

// Progress maps angle onto the profile's threshold band as a percentage
// clamped to [0, 100].
func (p Profile) Progress(angle float64) float64 {
	pct := (angle - p.Low) / (p.High - p.Low) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
