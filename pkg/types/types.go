package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidView is returned when a view label is not one of Front, Back, Left or Right
var ErrInvalidView = errors.New("invalid view")

// Landmark is a single pose keypoint in source image pixel space
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// View selects which geometric checks apply to a photograph
type View int

const (
	ViewUnknown View = iota
	ViewFront
	ViewBack
	ViewLeft
	ViewRight
)

var viewNames = map[View]string{
	ViewFront: "Front",
	ViewBack:  "Back",
	ViewLeft:  "Left",
	ViewRight: "Right",
}

// viewAliases maps lowercased labels seen from clients to the canonical view.
var viewAliases = map[string]View{
	"front":         ViewFront,
	"frontal":       ViewFront,
	"frente":        ViewFront,
	"back":          ViewBack,
	"rear":          ViewBack,
	"posterior":     ViewBack,
	"costas":        ViewBack,
	"left":          ViewLeft,
	"left side":     ViewLeft,
	"lado esquerdo": ViewLeft,
	"esquerdo":      ViewLeft,
	"right":         ViewRight,
	"right side":    ViewRight,
	"lado direito":  ViewRight,
	"direito":       ViewRight,
}

// Views lists every valid view in canonical order
func Views() []View {
	return []View{ViewFront, ViewBack, ViewLeft, ViewRight}
}

// ParseView converts a client label into a View
func ParseView(label string) (View, error) {
	key := strings.Join(strings.Fields(strings.ToLower(label)), " ")
	key = strings.TrimSuffix(key, " view")
	if v, ok := viewAliases[key]; ok {
		return v, nil
	}
	return ViewUnknown, fmt.Errorf("%w: %q", ErrInvalidView, label)
}

// Valid reports whether v is one of the four supported views
func (v View) Valid() bool {
	_, ok := viewNames[v]
	return ok
}

// Frontal reports whether v is analyzed in the frontal plane (Front or Back)
func (v View) Frontal() bool {
	return v == ViewFront || v == ViewBack
}

// Sagittal reports whether v is analyzed in the sagittal plane (Left or Right)
func (v View) Sagittal() bool {
	return v == ViewLeft || v == ViewRight
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "Unknown"
}

func (v View) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidView, int(v))
	}
	return json.Marshal(v.String())
}

func (v *View) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseView(label)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Report is the result of analyzing one photograph
type Report struct {
	OK                bool               `json:"ok"`
	View              View               `json:"view"`
	Message           string             `json:"message,omitempty"`
	QualityNote       string             `json:"quality_note"`
	ShoulderWidthPx   float64            `json:"shoulder_width_px"`
	HeightProxyPx     float64            `json:"height_proxy_px"`
	RollCorrectionDeg float64            `json:"roll_correction_deg"`
	Metrics           map[string]float64 `json:"metrics"`
	Flags             []string           `json:"flags"`
}

// NoBody builds the report returned when no person was found in the image
func NoBody(view View) *Report {
	return &Report{
		OK:      false,
		View:    view,
		Message: fmt.Sprintf("[%s] no body detected", view),
	}
}

// MarshalJSON emits only ok and message for failed analyses, and always
// emits metrics and flags (possibly empty) for successful ones.
func (r Report) MarshalJSON() ([]byte, error) {
	if !r.OK {
		return json.Marshal(struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
		}{OK: false, Message: r.Message})
	}

	type plain Report
	out := plain(r)
	if out.Metrics == nil {
		out.Metrics = map[string]float64{}
	}
	if out.Flags == nil {
		out.Flags = []string{}
	}
	return json.Marshal(out)
}
