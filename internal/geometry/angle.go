// Package geometry provides the planar primitives shared by the pose classifiers.
package geometry

import "math"

// Point is a position in frame pixel space.
type Point struct {
	X float64
	Y float64
}

// AngleAt returns the interior angle at vertex b formed by a-b-c, in degrees within [0, 180].
//
// The raw difference of the two polar angles can land anywhere in [0, 360]; values above 180
// are reflected to 360-x so the obtuse side of the joint is always reported. Coincident points
// yield a finite but meaningless angle (atan2(0, 0) is 0), so callers must check joint presence
// before trusting the result.
func AngleAt(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}
