// Package geometry holds the planar helpers shared by posture analysis and
// overlay rendering. Inputs are image coordinates (x right, y down); angles
// are measured counter-clockwise as seen on screen, so a line rising to the
// right has a positive angle.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/menta2k/posture-analyzer/pkg/types"
)

// MinNormalizer is the floor applied to a length used as a divisor
const MinNormalizer = 1.0

// Pt converts a landmark to a point
func Pt(lm types.Landmark) r2.Point {
	return r2.Point{X: lm.X, Y: lm.Y}
}

// Distance is the Euclidean distance between a and b
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// Midpoint returns the point halfway between a and b
func Midpoint(a, b r2.Point) r2.Point {
	return a.Add(b).Mul(0.5)
}

// LineAngle is the on-screen angle of the segment from -> to relative to
// the positive x axis, in (-180°, 180°].
func LineAngle(from, to r2.Point) s1.Angle {
	return s1.Angle(math.Atan2(from.Y-to.Y, to.X-from.X)) * s1.Radian
}

// Tilt is the unsigned deviation of the line through a and b from
// horizontal, in degrees within [0, 90]. The direction of the segment does
// not matter, so mirrored views produce the same value.
func Tilt(a, b r2.Point) float64 {
	deg := math.Abs(LineAngle(a, b).Degrees())
	if deg > 90 {
		deg = 180 - deg
	}
	return deg
}

// VerticalDeviation is the unsigned deviation of the segment from -> to
// from vertical, in degrees. 0 means perfectly vertical.
func VerticalDeviation(from, to r2.Point) float64 {
	deg := math.Abs(LineAngle(from, to).Degrees())
	return math.Abs(90 - deg)
}

// HorizontalOffset is the unsigned horizontal distance between a and b
func HorizontalOffset(a, b r2.Point) float64 {
	return math.Abs(a.X - b.X)
}

// Percent expresses value as a percentage of base, with base floor-clamped
// to MinNormalizer.
func Percent(value, base float64) float64 {
	return value / math.Max(base, MinNormalizer) * 100
}

// Rotate turns p about center by angle, counter-clockwise on screen
func Rotate(p, center r2.Point, angle s1.Angle) r2.Point {
	sin, cos := math.Sincos(angle.Radians())
	d := p.Sub(center)
	return r2.Point{
		X: center.X + d.X*cos + d.Y*sin,
		Y: center.Y - d.X*sin + d.Y*cos,
	}
}

// normalize folds an angle into (-180°, 180°]
func normalize(a s1.Angle) s1.Angle {
	deg := math.Mod(a.Degrees(), 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return s1.Angle(deg) * s1.Degree
}
