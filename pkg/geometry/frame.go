package geometry

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

// Frame is a landmark set with in-plane camera roll removed
type Frame struct {
	Set    *landmark.Set
	Roll   s1.Angle
	Center r2.Point
}

// ShoulderMidpoint returns the midpoint between both shoulders
func ShoulderMidpoint(set *landmark.Set) r2.Point {
	return Midpoint(Pt(set.Get(landmark.LeftShoulder)), Pt(set.Get(landmark.RightShoulder)))
}

// HipMidpoint returns the midpoint between both hips
func HipMidpoint(set *landmark.Set) r2.Point {
	return Midpoint(Pt(set.Get(landmark.LeftHip)), Pt(set.Get(landmark.RightHip)))
}

// AnkleMidpoint returns the midpoint between both ankles
func AnkleMidpoint(set *landmark.Set) r2.Point {
	return Midpoint(Pt(set.Get(landmark.LeftAnkle)), Pt(set.Get(landmark.RightAnkle)))
}

// ShoulderWidth is the 2D distance between the shoulders
func ShoulderWidth(set *landmark.Set) float64 {
	return Distance(Pt(set.Get(landmark.LeftShoulder)), Pt(set.Get(landmark.RightShoulder)))
}

// HeightProxy is the distance from the shoulder midpoint to the ankle midpoint
func HeightProxy(set *landmark.Set) float64 {
	return Distance(ShoulderMidpoint(set), AnkleMidpoint(set))
}

// Roll estimates the camera roll as the tilt of the body's longitudinal
// axis (ankle midpoint to shoulder midpoint) away from vertical. It is
// positive when the body appears turned counter-clockwise, which raises the
// subject's left shoulder in a frontal photograph. A degenerate axis yields 0.
func Roll(set *landmark.Set) s1.Angle {
	ankles, shoulders := AnkleMidpoint(set), ShoulderMidpoint(set)
	if Distance(ankles, shoulders) < MinNormalizer {
		return 0
	}
	return normalize(LineAngle(ankles, shoulders) - 90*s1.Degree)
}

// ShoulderRoll estimates the camera roll as the tilt of the shoulder line,
// folded into (-90°, 90°] so that it does not depend on which shoulder is
// nearer the camera. Overlapping shoulders yield 0.
func ShoulderRoll(set *landmark.Set) s1.Angle {
	left, right := Pt(set.Get(landmark.LeftShoulder)), Pt(set.Get(landmark.RightShoulder))
	if Distance(left, right) < MinNormalizer {
		return 0
	}
	deg := LineAngle(right, left).Degrees()
	if deg > 90 {
		deg -= 180
	} else if deg <= -90 {
		deg += 180
	}
	return s1.Angle(deg) * s1.Degree
}

// RollFor picks the roll reference for view. Frontal views use the body
// axis. Sagittal views use the shoulder line, since the body axis is the
// lean the plumb line measures.
func RollFor(view types.View, set *landmark.Set) s1.Angle {
	if view.Sagittal() {
		return ShoulderRoll(set)
	}
	return Roll(set)
}

// Correct rotates every landmark by the roll of view about the shoulder
// midpoint. In the returned frame the body axis (frontal views) or the
// shoulder line (sagittal views) is upright.
func Correct(view types.View, set *landmark.Set) Frame {
	roll := RollFor(view, set)
	center := ShoulderMidpoint(set)
	corrected := set.Map(func(x, y float64) (float64, float64) {
		p := Rotate(r2.Point{X: x, Y: y}, center, -roll)
		return p.X, p.Y
	})
	return Frame{Set: corrected, Roll: roll, Center: center}
}

// Inverse maps a point from the corrected frame back into image space
func (f Frame) Inverse(p r2.Point) r2.Point {
	return Rotate(p, f.Center, f.Roll)
}
