// Package postureanalyzer measures standing posture from photographs.
//
// Each photograph is labeled with the view it was taken from (Front, Back,
// Left or Right). A landmark provider locates the body keypoints, the
// analyzer removes camera roll and computes view specific metrics, and
// metrics beyond clinical thresholds are reported as flags. An optional
// overlay draws the measured geometry onto a copy of the photograph.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		postureanalyzer "github.com/menta2k/posture-analyzer"
//		"github.com/menta2k/posture-analyzer/pkg/posesvc"
//		"github.com/menta2k/posture-analyzer/pkg/types"
//	)
//
//	func main() {
//		provider, err := posesvc.NewClient("http://localhost:8090")
//		if err != nil {
//			log.Fatal(err)
//		}
//		service := postureanalyzer.New(provider)
//
//		img, err := service.LoadImage("front.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		report, err := service.Analyze(context.Background(), img, types.ViewFront)
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, flag := range report.Flags {
//			fmt.Println(flag)
//		}
//	}
//
// The package consists of these components:
//
// 1. Analyzer (pkg/analyzer): roll correction, per view metrics and flags
// 2. Overlay (pkg/overlay): annotated copies of analyzed photographs
// 3. Landmark providers (pkg/posesvc, pkg/ollama, pkg/landmark): keypoint extraction
// 4. Insights (pkg/insights): intake based insights for nutritionists and trainers
package postureanalyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/posture-analyzer/pkg/analyzer"
	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/overlay"
	"github.com/menta2k/posture-analyzer/pkg/processing"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

// Version of the posture analyzer library
const Version = "1.0.0"

// ErrViewCountMismatch is returned when views and images cannot be paired
var ErrViewCountMismatch = errors.New("number of views does not match number of images")

// Observer is notified after each photograph is analyzed
type Observer func(view types.View, report *types.Report, err error, elapsed time.Duration)

// Service provides a high-level interface for posture analysis
type Service struct {
	analyzer  *analyzer.PostureAnalyzer
	renderer  *overlay.Renderer
	processor *processing.Processor
	observer  Observer
}

// New creates a new Service with default thresholds and overlay style
func New(provider client.LandmarkProvider) *Service {
	return NewWithConfig(provider, analyzer.DefaultConfig(), overlay.DefaultConfig())
}

// NewWithConfig creates a new Service with custom thresholds and overlay style
func NewWithConfig(provider client.LandmarkProvider, analyzerConfig analyzer.Config, overlayConfig overlay.Config) *Service {
	return &Service{
		analyzer:  analyzer.NewWithConfig(provider, analyzerConfig),
		renderer:  overlay.NewWithConfig(provider, overlayConfig),
		processor: processing.NewProcessor(),
	}
}

// SetObserver installs fn to be called after each analysis
func (s *Service) SetObserver(fn Observer) {
	s.observer = fn
}

// ViewImage pairs a photograph with the view it was taken from
type ViewImage struct {
	View  types.View
	Image image.Image
}

// Request describes one multi-view assessment
type Request struct {
	PatientID      string
	ProfessionalID string
	ServicePlanID  string
	Views          []ViewImage
	// Overlays adds a base64 PNG overlay per successfully analyzed view
	Overlays bool
}

// Session is the result of one multi-view assessment
type Session struct {
	ID             string            `json:"id"`
	PatientID      string            `json:"patientId"`
	ProfessionalID string            `json:"professionalId"`
	ServicePlanID  string            `json:"servicePlanId"`
	CreatedAt      time.Time         `json:"createdAt"`
	Images         []*types.Report   `json:"images"`
	Overlays       map[string]string `json:"overlays,omitempty"`
}

// LoadImage loads an image from a file path or an http(s) URL
func (s *Service) LoadImage(source string) (image.Image, error) {
	return s.processor.LoadImageSmart(source)
}

// LoadImageFromReader loads an image from an io.Reader
func (s *Service) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	return s.processor.DecodeReader(reader)
}

// SaveImage saves an image to file in the given format (jpg, png or webp)
func (s *Service) SaveImage(img image.Image, filepath, format string, quality int) error {
	return s.processor.SaveImage(img, filepath, format, quality, false)
}

// Analyze analyzes one photograph
func (s *Service) Analyze(ctx context.Context, img image.Image, view types.View) (*types.Report, error) {
	start := time.Now()
	report, err := s.analyzer.Analyze(ctx, img, view)
	if s.observer != nil && view.Valid() {
		s.observer(view, report, err, time.Since(start))
	}
	return report, err
}

// DrawOverlays returns an annotated copy of img for report
func (s *Service) DrawOverlays(ctx context.Context, img image.Image, report *types.Report) (image.Image, error) {
	return s.renderer.DrawOverlays(ctx, img, report)
}

// AnalyzeViews analyzes every photograph of req in order. An invalid view
// or a provider failure aborts the session; a photograph without a body
// yields a failed report and the session continues.
func (s *Service) AnalyzeViews(ctx context.Context, req Request) (*Session, error) {
	for _, v := range req.Views {
		if !v.View.Valid() {
			return nil, fmt.Errorf("%w: %d", types.ErrInvalidView, int(v.View))
		}
	}

	session := &Session{
		ID:             uuid.NewString(),
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		ServicePlanID:  req.ServicePlanID,
		CreatedAt:      time.Now().UTC(),
		Images:         make([]*types.Report, 0, len(req.Views)),
	}
	if req.Overlays {
		session.Overlays = make(map[string]string)
	}

	for i, v := range req.Views {
		report, err := s.Analyze(ctx, v.Image, v.View)
		if err != nil {
			return nil, fmt.Errorf("%s view: %w", v.View, err)
		}
		session.Images = append(session.Images, report)

		if !req.Overlays || !report.OK {
			continue
		}
		drawn, err := s.DrawOverlays(ctx, v.Image, report)
		if err != nil {
			return nil, fmt.Errorf("%s view overlay: %w", v.View, err)
		}
		encoded, err := s.processor.EncodeBase64PNG(drawn)
		if err != nil {
			return nil, fmt.Errorf("%s view overlay: %w", v.View, err)
		}
		session.Overlays[overlayKey(session.Overlays, v.View, i)] = encoded
	}

	return session, nil
}

// ParseViews converts view labels for n images. A single comma-separated
// label is split into its parts.
func ParseViews(labels []string, n int) ([]types.View, error) {
	if len(labels) == 1 && strings.Contains(labels[0], ",") {
		labels = strings.Split(labels[0], ",")
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d views, %d images", ErrViewCountMismatch, len(labels), n)
	}

	views := make([]types.View, 0, len(labels))
	for _, label := range labels {
		v, err := types.ParseView(label)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func overlayKey(existing map[string]string, view types.View, index int) string {
	key := strings.ToLower(view.String())
	if _, taken := existing[key]; taken {
		key = fmt.Sprintf("%s_%d", key, index)
	}
	return key
}
