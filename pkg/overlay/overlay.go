// Package overlay draws the posture geometry and flags onto a copy of the
// analyzed photograph for visual review.
package overlay

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font/basicfont"

	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/geometry"
	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

var (
	shoulderColor  = color.NRGBA{0, 200, 0, 255}
	hipColor       = color.NRGBA{0, 170, 255, 255}
	midlineColor   = color.NRGBA{255, 0, 0, 255}
	plumbColor     = color.NRGBA{255, 204, 0, 255}
	headColor      = color.NRGBA{255, 120, 0, 255}
	trunkColor     = color.NRGBA{0, 220, 220, 255}
	referenceColor = color.NRGBA{255, 255, 255, 200}
	jointColor     = color.NRGBA{255, 0, 255, 255}
	textColor      = color.NRGBA{255, 255, 255, 255}
	shadowColor    = color.NRGBA{0, 0, 0, 255}
)

// Config controls line widths and the flag text block
type Config struct {
	LineWidth   float64
	JointRadius float64
	MaxFlags    int
	TextX       float64
	TextY       float64
	LineSpacing float64
}

// DefaultConfig returns the standard overlay style
func DefaultConfig() Config {
	return Config{
		LineWidth:   3,
		JointRadius: 5,
		MaxFlags:    5,
		TextX:       10,
		TextY:       20,
		LineSpacing: 18,
	}
}

// Renderer produces annotated copies of analyzed images
type Renderer struct {
	provider client.LandmarkProvider
	config   Config
}

// New creates a Renderer with the default style
func New(provider client.LandmarkProvider) *Renderer {
	return NewWithConfig(provider, DefaultConfig())
}

// NewWithConfig creates a Renderer with a custom style
func NewWithConfig(provider client.LandmarkProvider, config Config) *Renderer {
	return &Renderer{provider: provider, config: config}
}

// DrawOverlays re-extracts landmarks from img and draws the geometry behind
// report. A failed report returns img itself.
func (r *Renderer) DrawOverlays(ctx context.Context, img image.Image, report *types.Report) (image.Image, error) {
	if report == nil || !report.OK {
		return img, nil
	}

	set, err := r.provider.Extract(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("landmark extraction failed: %w: %w", client.ErrBackend, err)
	}

	return r.Render(img, report, set), nil
}

// Render draws report onto a copy of img using an already extracted set.
// A nil set draws only the flag text.
func (r *Renderer) Render(img image.Image, report *types.Report, set *landmark.Set) image.Image {
	if report == nil || !report.OK {
		return img
	}

	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(r.config.LineWidth)

	if set != nil {
		frame := geometry.Correct(report.View, set)
		if report.View.Frontal() {
			r.drawFrontal(dc, frame)
		} else {
			r.drawSagittal(dc, frame, landmark.SideOf(report.View))
		}
	}

	r.drawFlags(dc, report.Flags)
	return dc.Image()
}

func (r *Renderer) drawFrontal(dc *gg.Context, frame geometry.Frame) {
	set := frame.Set
	shoulderL, shoulderR := geometry.Pt(set.Get(landmark.LeftShoulder)), geometry.Pt(set.Get(landmark.RightShoulder))
	hipL, hipR := geometry.Pt(set.Get(landmark.LeftHip)), geometry.Pt(set.Get(landmark.RightHip))
	shoulderMid, hipMid := geometry.Midpoint(shoulderL, shoulderR), geometry.Midpoint(hipL, hipR)

	r.drawReference(dc, frame, shoulderMid, geometry.AnkleMidpoint(set))
	r.segment(dc, frame, shoulderR, shoulderL, shoulderColor)
	r.segment(dc, frame, hipR, hipL, hipColor)
	r.segment(dc, frame, shoulderMid, hipMid, midlineColor)
	r.joints(dc, frame, shoulderL, shoulderR, hipL, hipR, shoulderMid, hipMid)
}

func (r *Renderer) drawSagittal(dc *gg.Context, frame geometry.Frame, side landmark.Side) {
	set := frame.Set
	ear := geometry.Pt(set.Ear(side))
	shoulder := geometry.Pt(set.Shoulder(side))
	hip := geometry.Pt(set.Hip(side))
	ankle := geometry.Pt(set.Ankle(side))

	r.drawReference(dc, frame, r2.Point{X: ankle.X, Y: ear.Y}, ankle)
	r.segment(dc, frame, ear, ankle, plumbColor)
	r.segment(dc, frame, ear, shoulder, headColor)
	r.segment(dc, frame, shoulder, hip, trunkColor)
	r.joints(dc, frame, ear, shoulder, hip, ankle)
}

// drawReference draws a dashed vertical of the corrected frame, which shows
// the roll reference in the original image.
func (r *Renderer) drawReference(dc *gg.Context, frame geometry.Frame, top, bottom r2.Point) {
	dc.Push()
	defer dc.Pop()
	dc.SetDash(8, 6)
	dc.SetLineWidth(1)
	r.segment(dc, frame, r2.Point{X: bottom.X, Y: top.Y}, bottom, referenceColor)
}

// segment draws a line given in corrected coordinates
func (r *Renderer) segment(dc *gg.Context, frame geometry.Frame, from, to r2.Point, c color.Color) {
	a, b := frame.Inverse(from), frame.Inverse(to)
	dc.SetColor(c)
	dc.DrawLine(a.X, a.Y, b.X, b.Y)
	dc.Stroke()
}

func (r *Renderer) joints(dc *gg.Context, frame geometry.Frame, points ...r2.Point) {
	dc.SetColor(jointColor)
	for _, p := range points {
		q := frame.Inverse(p)
		dc.DrawCircle(q.X, q.Y, r.config.JointRadius)
		dc.Fill()
	}
}

func (r *Renderer) drawFlags(dc *gg.Context, flags []string) {
	if len(flags) > r.config.MaxFlags {
		flags = flags[:r.config.MaxFlags]
	}
	dc.SetFontFace(basicfont.Face7x13)
	for i, flag := range flags {
		y := r.config.TextY + float64(i)*r.config.LineSpacing
		dc.SetColor(shadowColor)
		dc.DrawString(flag, r.config.TextX+1, y+1)
		dc.SetColor(textColor)
		dc.DrawString(flag, r.config.TextX, y)
	}
}
