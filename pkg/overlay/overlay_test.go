package overlay

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/posture-analyzer/pkg/analyzer"
	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

func createTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{60, 60, 60, 255})
		}
	}
	return img
}

func createTestSet() *landmark.Set {
	set := new(landmark.Set)
	put := func(id landmark.ID, x, y float64) {
		set.Put(id, types.Landmark{X: x, Y: y, Visibility: 0.95})
	}
	put(landmark.LeftEar, 170, 50)
	put(landmark.RightEar, 130, 50)
	put(landmark.LeftShoulder, 200, 80)
	put(landmark.RightShoulder, 100, 90)
	put(landmark.LeftHip, 185, 200)
	put(landmark.RightHip, 115, 200)
	put(landmark.LeftAnkle, 180, 380)
	put(landmark.RightAnkle, 120, 380)
	return set
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

type failingProvider struct{}

func (failingProvider) Extract(context.Context, image.Image) (*landmark.Set, error) {
	return nil, errors.New("model unavailable")
}

func TestDrawOverlaysFailedReport(t *testing.T) {
	img := createTestImage(300, 400)
	provider := landmark.NewStatic(createTestSet())
	r := New(provider)

	out, err := r.DrawOverlays(context.Background(), img, types.NoBody(types.ViewFront))
	if err != nil {
		t.Fatalf("DrawOverlays failed: %v", err)
	}
	if !samePixels(out, img) {
		t.Error("Expected the input image unchanged for a failed report")
	}
	if provider.Calls() != 0 {
		t.Error("Provider should not be called for a failed report")
	}
}

func TestDrawOverlaysDoesNotMutateInput(t *testing.T) {
	for _, view := range types.Views() {
		img := createTestImage(300, 400)
		original := createTestImage(300, 400)
		set := createTestSet()

		report, err := analyzer.New(landmark.NewStatic(set)).AnalyzeLandmarks(view, set)
		if err != nil {
			t.Fatalf("AnalyzeLandmarks failed: %v", err)
		}

		out, err := New(landmark.NewStatic(set)).DrawOverlays(context.Background(), img, report)
		if err != nil {
			t.Fatalf("%s: DrawOverlays failed: %v", view, err)
		}
		if !samePixels(img, original) {
			t.Errorf("%s: input image was modified", view)
		}
		if out.Bounds() != img.Bounds() {
			t.Errorf("%s: expected bounds %v, got %v", view, img.Bounds(), out.Bounds())
		}
		if samePixels(out, img) {
			t.Errorf("%s: expected overlay to change the output", view)
		}
	}
}

func TestRenderFlagsOnly(t *testing.T) {
	img := createTestImage(300, 120)
	report := &types.Report{OK: true, View: types.ViewBack, Flags: []string{"[Back] possible shoulder tilt"}}

	out := New(landmark.NewStatic(nil)).Render(img, report, nil)
	if samePixels(out, img) {
		t.Error("Expected flag text to be drawn")
	}

	empty := New(landmark.NewStatic(nil)).Render(img, &types.Report{OK: true, View: types.ViewBack}, nil)
	if !samePixels(empty, img) {
		t.Error("Expected no drawing without landmarks or flags")
	}
}

func TestRenderLimitsFlags(t *testing.T) {
	img := createTestImage(400, 400)
	cfg := DefaultConfig()
	flags := make([]string, 8)
	for i := range flags {
		flags[i] = "flag"
	}
	report := &types.Report{OK: true, View: types.ViewFront, Flags: flags}

	out := NewWithConfig(landmark.NewStatic(nil), cfg).Render(img, report, nil)

	// nothing is drawn below the last permitted line
	limit := int(cfg.TextY+float64(cfg.MaxFlags-1)*cfg.LineSpacing) + 6
	below := image.Rect(0, limit, 400, 400)
	for y := below.Min.Y; y < below.Max.Y; y++ {
		for x := below.Min.X; x < below.Max.X; x++ {
			if out.At(x, y) != img.At(x, y) {
				r1, g1, b1, _ := out.At(x, y).RGBA()
				r2, g2, b2, _ := img.At(x, y).RGBA()
				if r1 != r2 || g1 != g2 || b1 != b2 {
					t.Fatalf("Unexpected drawing at (%d, %d)", x, y)
				}
			}
		}
	}
}

func TestDrawOverlaysProviderError(t *testing.T) {
	report := &types.Report{OK: true, View: types.ViewLeft}
	if _, err := New(failingProvider{}).DrawOverlays(context.Background(), createTestImage(10, 10), report); !errors.Is(err, client.ErrBackend) {
		t.Errorf("Expected a backend error, got %v", err)
	}
}
