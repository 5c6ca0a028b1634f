package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

const eps = 1e-9

func TestLineAngle(t *testing.T) {
	tests := []struct {
		to       r2.Point
		expected float64
	}{
		{r2.Point{X: 10, Y: 0}, 0},
		{r2.Point{X: 0, Y: -10}, 90},
		{r2.Point{X: 10, Y: -10}, 45},
		{r2.Point{X: -10, Y: 0}, 180},
		{r2.Point{X: 0, Y: 10}, -90},
	}

	for _, test := range tests {
		got := LineAngle(r2.Point{}, test.to).Degrees()
		if math.Abs(got-test.expected) > eps {
			t.Errorf("LineAngle to %v: expected %f, got %f", test.to, test.expected, got)
		}
	}
}

func TestTiltIgnoresDirection(t *testing.T) {
	a, b := r2.Point{X: 0, Y: 0}, r2.Point{X: 100, Y: 10}
	if math.Abs(Tilt(a, b)-Tilt(b, a)) > eps {
		t.Errorf("Tilt should not depend on segment direction: %f vs %f", Tilt(a, b), Tilt(b, a))
	}
	if got := Tilt(a, r2.Point{X: -50, Y: 0}); got != 0 {
		t.Errorf("Expected 0 for a horizontal line, got %f", got)
	}
	if got := Tilt(a, r2.Point{X: 0, Y: 50}); math.Abs(got-90) > eps {
		t.Errorf("Expected 90 for a vertical line, got %f", got)
	}
}

func TestVerticalDeviation(t *testing.T) {
	if got := VerticalDeviation(r2.Point{X: 0, Y: 100}, r2.Point{X: 0, Y: 0}); got > eps {
		t.Errorf("Expected 0, got %f", got)
	}
	if got := VerticalDeviation(r2.Point{X: 0, Y: 100}, r2.Point{X: 100, Y: 0}); math.Abs(got-45) > eps {
		t.Errorf("Expected 45, got %f", got)
	}
	if got := VerticalDeviation(r2.Point{X: 0, Y: 100}, r2.Point{X: -100, Y: 0}); math.Abs(got-45) > eps {
		t.Errorf("Expected 45 leaning the other way, got %f", got)
	}
}

func TestPercentFloor(t *testing.T) {
	if got := Percent(10, 200); math.Abs(got-5) > eps {
		t.Errorf("Expected 5, got %f", got)
	}
	if got := Percent(3, 0); math.Abs(got-300) > eps {
		t.Errorf("Expected base clamped to 1px, got %f", got)
	}
}

func TestRotate(t *testing.T) {
	center := r2.Point{X: 10, Y: 10}
	p := Rotate(r2.Point{X: 20, Y: 10}, center, 90*s1.Degree)
	if math.Abs(p.X-10) > eps || math.Abs(p.Y-0) > eps {
		t.Errorf("Expected (10, 0), got %v", p)
	}

	back := Rotate(p, center, -90*s1.Degree)
	if math.Abs(back.X-20) > eps || math.Abs(back.Y-10) > eps {
		t.Errorf("Expected round trip to (20, 10), got %v", back)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		270:  -90,
		-270: 90,
		725:  5,
	}
	for in, expected := range tests {
		got := normalize(s1.Angle(in) * s1.Degree).Degrees()
		if math.Abs(got-expected) > 1e-9 {
			t.Errorf("normalize(%f): expected %f, got %f", in, expected, got)
		}
	}
}

func uprightSet() *landmark.Set {
	set := new(landmark.Set)
	put := func(id landmark.ID, x, y float64) {
		set.Put(id, types.Landmark{X: x, Y: y, Visibility: 1})
	}
	put(landmark.LeftShoulder, 300, 200)
	put(landmark.RightShoulder, 100, 200)
	put(landmark.LeftAnkle, 250, 800)
	put(landmark.RightAnkle, 150, 800)
	return set
}

func TestRollAndCorrect(t *testing.T) {
	set := uprightSet()
	if r := Roll(set); math.Abs(r.Degrees()) > eps {
		t.Errorf("Expected no roll for an upright subject, got %f", r.Degrees())
	}

	theta := 12 * s1.Degree
	pivot := r2.Point{X: 40, Y: 900}
	rolled := set.Map(func(x, y float64) (float64, float64) {
		p := Rotate(r2.Point{X: x, Y: y}, pivot, theta)
		return p.X, p.Y
	})

	if r := Roll(rolled); math.Abs(r.Degrees()-12) > 1e-9 {
		t.Errorf("Expected roll 12, got %f", r.Degrees())
	}

	frame := Correct(types.ViewFront, rolled)
	ls, rs := Pt(frame.Set.Get(landmark.LeftShoulder)), Pt(frame.Set.Get(landmark.RightShoulder))
	if math.Abs(ls.Y-rs.Y) > 1e-9 {
		t.Errorf("Shoulders should be level after correction, got %f and %f", ls.Y, rs.Y)
	}
	if math.Abs(HorizontalOffset(ShoulderMidpoint(frame.Set), AnkleMidpoint(frame.Set))) > 1e-9 {
		t.Error("Body axis should be vertical after correction")
	}

	orig := Pt(rolled.Get(landmark.LeftAnkle))
	mapped := frame.Inverse(Pt(frame.Set.Get(landmark.LeftAnkle)))
	if Distance(orig, mapped) > 1e-9 {
		t.Errorf("Inverse should map back to %v, got %v", orig, mapped)
	}
}

func TestRollDegenerateAxis(t *testing.T) {
	set := new(landmark.Set)
	if r := Roll(set); r != 0 {
		t.Errorf("Expected 0 roll for a collapsed axis, got %f", r.Degrees())
	}
}

func TestMeasurements(t *testing.T) {
	set := uprightSet()
	if got := ShoulderWidth(set); math.Abs(got-200) > eps {
		t.Errorf("Expected shoulder width 200, got %f", got)
	}
	if got := HeightProxy(set); math.Abs(got-600) > eps {
		t.Errorf("Expected height proxy 600, got %f", got)
	}
}

func TestShoulderRoll(t *testing.T) {
	// Sagittal layout: the left shoulder is nearer the image's left edge
	set := new(landmark.Set)
	set.Put(landmark.LeftShoulder, types.Landmark{X: 100, Y: 200})
	set.Put(landmark.RightShoulder, types.Landmark{X: 300, Y: 200})
	set.Put(landmark.LeftAnkle, types.Landmark{X: 40, Y: 900})
	set.Put(landmark.RightAnkle, types.Landmark{X: 240, Y: 900})

	tests := []struct {
		set  *landmark.Set
		want float64
	}{
		{set, 0},
		{uprightSet(), 0},
	}
	for _, deg := range []float64{-30, 8} {
		theta := s1.Angle(deg) * s1.Degree
		tests = append(tests, struct {
			set  *landmark.Set
			want float64
		}{set.Map(func(x, y float64) (float64, float64) {
			p := Rotate(r2.Point{X: x, Y: y}, r2.Point{}, theta)
			return p.X, p.Y
		}), deg})
	}

	for _, tt := range tests {
		if got := ShoulderRoll(tt.set).Degrees(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Expected shoulder roll %f, got %f", tt.want, got)
		}
	}

	if r := ShoulderRoll(new(landmark.Set)); r != 0 {
		t.Errorf("Expected 0 for overlapping shoulders, got %f", r.Degrees())
	}
}

func TestCorrectKeepsSagittalLean(t *testing.T) {
	set := new(landmark.Set)
	set.Put(landmark.LeftShoulder, types.Landmark{X: 100, Y: 200})
	set.Put(landmark.RightShoulder, types.Landmark{X: 300, Y: 200})
	set.Put(landmark.LeftAnkle, types.Landmark{X: 160, Y: 900})
	set.Put(landmark.RightAnkle, types.Landmark{X: 360, Y: 900})

	if r := RollFor(types.ViewLeft, set); r != 0 {
		t.Errorf("Sagittal roll should ignore the body axis, got %f", r.Degrees())
	}
	if r := RollFor(types.ViewFront, set); math.Abs(r.Degrees()) < 1 {
		t.Errorf("Frontal roll should follow the body axis, got %f", r.Degrees())
	}

	frame := Correct(types.ViewLeft, set)
	if got := HorizontalOffset(Pt(frame.Set.Get(landmark.LeftShoulder)), Pt(frame.Set.Get(landmark.LeftAnkle))); math.Abs(got-60) > 1e-9 {
		t.Errorf("Expected the 60px lean to survive correction, got %f", got)
	}
}
