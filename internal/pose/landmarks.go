// Package pose holds body-landmark types, the joint-angle calculation and the
// client for the external pose estimator.
package pose

import "gonum.org/v1/gonum/spatial/r2"

// Body landmark indices following the MediaPipe Pose convention (33 points).
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	NumLandmarks  = 33
)

// Point is a normalized 2D image coordinate.
type Point = r2.Vec

// Landmark is one joint as reported by the estimator. X and Y are normalized
// to [0,1] by image width and height; Z is relative depth.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point drops the depth component.
func (l Landmark) Point() Point {
	return Point{X: l.X, Y: l.Y}
}

// Landmarks is the per-frame estimator result. An empty value means no body
// was detected.
type Landmarks []Landmark

// Empty reports whether the frame had no detected body.
func (ls Landmarks) Empty() bool {
	return len(ls) == 0
}

// Joint is a (proximal, vertex, distal) triple of landmark indices.
type Joint [3]int

// Points returns the three joint points, or false if any index is missing or
// its visibility is below minVisibility.
func (ls Landmarks) Points(j Joint, minVisibility float64) (a, b, c Point, ok bool) {
	for _, idx := range j {
		if idx < 0 || idx >= len(ls) {
			return a, b, c, false
		}
		if ls[idx].Visibility < minVisibility {
			return a, b, c, false
		}
	}
	return ls[j[0]].Point(), ls[j[1]].Point(), ls[j[2]].Point(), true
}
