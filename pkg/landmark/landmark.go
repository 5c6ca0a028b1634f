// Package landmark defines the fixed body topology returned by pose estimators
// and named access into a landmark set.
package landmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/menta2k/posture-analyzer/pkg/types"
)

// ID identifies an anatomical keypoint. The order follows the 33-point
// BlazePose topology so that estimator output can be copied index for index.
type ID int

const (
	Nose ID = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	// Count is the number of landmarks in a full set
	Count
)

var idNames = [Count]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

func (id ID) String() string {
	if id < 0 || id >= Count {
		return fmt.Sprintf("landmark(%d)", int(id))
	}
	return idNames[id]
}

// ParseID looks up a landmark by its snake_case name
func ParseID(name string) (ID, bool) {
	for i, n := range idNames {
		if n == name {
			return ID(i), true
		}
	}
	return 0, false
}

// Side selects the left or right member of a bilateral landmark pair
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Set is a full landmark set indexed by ID
type Set [Count]types.Landmark

// Get returns the landmark identified by id
func (s *Set) Get(id ID) types.Landmark {
	return s[id]
}

// Put stores a landmark at id
func (s *Set) Put(id ID, lm types.Landmark) {
	s[id] = lm
}

func (s *Set) Ear(side Side) types.Landmark      { return s.pick(side, LeftEar, RightEar) }
func (s *Set) Shoulder(side Side) types.Landmark { return s.pick(side, LeftShoulder, RightShoulder) }
func (s *Set) Hip(side Side) types.Landmark      { return s.pick(side, LeftHip, RightHip) }
func (s *Set) Ankle(side Side) types.Landmark    { return s.pick(side, LeftAnkle, RightAnkle) }

func (s *Set) pick(side Side, left, right ID) types.Landmark {
	if side == Left {
		return s[left]
	}
	return s[right]
}

// Map applies fn to every landmark position and returns a new set.
// Visibility is carried over unchanged.
func (s *Set) Map(fn func(x, y float64) (float64, float64)) *Set {
	out := new(Set)
	for i, lm := range s {
		x, y := fn(lm.X, lm.Y)
		out[i] = types.Landmark{X: x, Y: y, Visibility: lm.Visibility}
	}
	return out
}

// SideOf returns the body side photographed in a sagittal view
func SideOf(view types.View) Side {
	if view == types.ViewRight {
		return Right
	}
	return Left
}

// Required lists the landmarks a view's metrics depend on, in the order
// they are reported by the visibility check. Sagittal views also need the
// far shoulder and ankle for shoulder width, height proxy and roll.
func Required(view types.View) []ID {
	switch view {
	case types.ViewFront, types.ViewBack:
		return []ID{LeftShoulder, RightShoulder, LeftHip, RightHip, LeftAnkle, RightAnkle}
	case types.ViewLeft:
		return []ID{LeftEar, LeftShoulder, LeftHip, LeftAnkle, RightShoulder, RightAnkle}
	case types.ViewRight:
		return []ID{RightEar, RightShoulder, RightHip, RightAnkle, LeftShoulder, LeftAnkle}
	}
	return nil
}

// Named is the JSON form of one landmark in a fixture file
type Named struct {
	Name string `json:"name"`
	types.Landmark
}

// MarshalJSON writes the set as a list of named landmarks
func (s Set) MarshalJSON() ([]byte, error) {
	out := make([]Named, 0, Count)
	for i, lm := range s {
		out = append(out, Named{Name: ID(i).String(), Landmark: lm})
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either a positional list of Count landmarks or a
// list of named landmarks. Landmarks absent from a named list keep zero
// visibility.
func (s *Set) UnmarshalJSON(data []byte) error {
	var named []Named
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("failed to parse landmarks: %w", err)
	}

	positional := len(named) == int(Count)
	for _, n := range named {
		if n.Name != "" {
			positional = false
			break
		}
	}

	var out Set
	for i, n := range named {
		if positional {
			out[i] = n.Landmark
			continue
		}
		id, ok := ParseID(n.Name)
		if !ok {
			return fmt.Errorf("unknown landmark %q", n.Name)
		}
		out[id] = n.Landmark
	}
	*s = out
	return nil
}

// LoadFile reads a landmark set from a JSON fixture
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read landmark file: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return &set, nil
}
