package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleAtRightAngle(t *testing.T) {
	angle := AngleAt(Point{X: 0, Y: 10}, Point{X: 0, Y: 0}, Point{X: 10, Y: 0})
	require.InDelta(t, 90.0, angle, 1e-9)
}

func TestAngleAtStraightLine(t *testing.T) {
	angle := AngleAt(Point{X: -5, Y: 0}, Point{X: 0, Y: 0}, Point{X: 5, Y: 0})
	require.InDelta(t, 180.0, angle, 1e-9)
}

func TestAngleAtReflectsReflexAngle(t *testing.T) {
	// atan2 difference here is 270 degrees; the joint is reported as 90.
	angle := AngleAt(Point{X: 0, Y: -1}, Point{X: 0, Y: 0}, Point{X: -1, Y: 0})
	require.InDelta(t, 90.0, angle, 1e-9)
}

func TestAngleAtIsSymmetric(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0}, {X: 3, Y: 4}, {X: -7, Y: 2}, {X: 120.5, Y: -33.25},
		{X: 1e-6, Y: 1e-6}, {X: 640, Y: 480}, {X: -1, Y: -1},
	}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				require.InDelta(t, AngleAt(a, b, c), AngleAt(c, b, a), 1e-9, "a=%v b=%v c=%v", a, b, c)
			}
		}
	}
}

func TestAngleAtDegenerateInputStaysInRange(t *testing.T) {
	same := Point{X: 10, Y: 10}
	cases := [][3]Point{
		{same, same, same},
		{same, same, {X: 20, Y: 10}},
		{{X: 0, Y: 0}, same, same},
	}
	for _, tc := range cases {
		angle := AngleAt(tc[0], tc[1], tc[2])
		require.False(t, math.IsNaN(angle))
		require.GreaterOrEqual(t, angle, 0.0)
		require.LessOrEqual(t, angle, 180.0)
	}
}
