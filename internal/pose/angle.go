package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Angle returns the angle at vertex b subtended by a and c, in degrees within
// [0, 180]. Coincident points give 0.
func Angle(a, b, c Point) float64 {
	ba := r2.Sub(a, b)
	bc := r2.Sub(c, b)

	// math.Atan2(0, 0) is 0, so a zero-length arm contributes no rotation.
	radians := math.Atan2(bc.Y, bc.X) - math.Atan2(ba.Y, ba.X)
	deg := math.Abs(radians * 180.0 / math.Pi)
	if deg > 180.0 {
		deg = 360.0 - deg
	}
	return deg
}
