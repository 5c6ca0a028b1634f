package analyzer

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/geometry"
	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

// Metric names reported for frontal-plane views (Front, Back)
const (
	MetricShoulderTilt   = "shoulder_tilt_deg"
	MetricPelvicTilt     = "pelvic_tilt_deg"
	MetricMidlineShiftPx = "midline_shift_px"
	MetricMidlineShift   = "midline_shift_pct_shoulder"
)

// Metric names reported for sagittal-plane views (Left, Right)
const (
	MetricPlumbLinePx   = "sagittal_prumo_head_to_ankle_px"
	MetricPlumbLine     = "sagittal_prumo_head_to_ankle_pct_shoulder"
	MetricForwardHeadPx = "forward_head_ear_to_acromion_px"
	MetricForwardHead   = "forward_head_ear_to_acromion_pct_shoulder"
	MetricHeadTrunk     = "head_trunk_alignment_deg"
)

// PostureAnalyzer turns a photograph and its view label into a posture report
type PostureAnalyzer struct {
	provider client.LandmarkProvider
	config   Config
}

// Config holds the thresholds used by the analyzer
type Config struct {
	MinVisibility      float64
	MinShoulderWidthPx float64
	MinHeightProxyPx   float64

	ShoulderTiltDeg float64
	PelvicTiltDeg   float64
	MidlineShiftPct float64
	ForwardHeadPct  float64
	PlumbLinePct    float64
	HeadTrunkDeg    float64
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinVisibility:      0.5,
		MinShoulderWidthPx: 60,
		MinHeightProxyPx:   150,
		ShoulderTiltDeg:    4,
		PelvicTiltDeg:      4,
		MidlineShiftPct:    7,
		ForwardHeadPct:     15,
		PlumbLinePct:       20,
		HeadTrunkDeg:       5,
	}
}

// New creates a PostureAnalyzer with default thresholds
func New(provider client.LandmarkProvider) *PostureAnalyzer {
	return NewWithConfig(provider, DefaultConfig())
}

// NewWithConfig creates a PostureAnalyzer with custom thresholds
func NewWithConfig(provider client.LandmarkProvider, config Config) *PostureAnalyzer {
	return &PostureAnalyzer{provider: provider, config: config}
}

// Config returns the thresholds in use
func (a *PostureAnalyzer) Config() Config {
	return a.config
}

// Analyze extracts landmarks from img and evaluates them for view.
// A photograph without a detectable body yields a report with OK unset;
// errors are reserved for invalid views and provider failures.
func (a *PostureAnalyzer) Analyze(ctx context.Context, img image.Image, view types.View) (*types.Report, error) {
	if !view.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidView, int(view))
	}

	set, err := a.provider.Extract(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("landmark extraction failed: %w: %w", client.ErrBackend, err)
	}

	return a.AnalyzeLandmarks(view, set)
}

// AnalyzeLandmarks evaluates an already extracted landmark set
func (a *PostureAnalyzer) AnalyzeLandmarks(view types.View, set *landmark.Set) (*types.Report, error) {
	if !view.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidView, int(view))
	}
	if set == nil {
		return types.NoBody(view), nil
	}

	report := &types.Report{
		OK:              true,
		View:            view,
		ShoulderWidthPx: geometry.ShoulderWidth(set),
		HeightProxyPx:   geometry.HeightProxy(set),
		Metrics:         map[string]float64{},
		Flags:           []string{},
	}

	if report.ShoulderWidthPx < a.config.MinShoulderWidthPx || report.HeightProxyPx < a.config.MinHeightProxyPx {
		report.QualityNote = fmt.Sprintf(
			"[%s] subject is small in the frame (shoulder width %.1fpx, height proxy %.1fpx); framing or distance may reduce measurement precision",
			view, report.ShoulderWidthPx, report.HeightProxyPx)
	}

	frame := geometry.Correct(view, set)
	report.RollCorrectionDeg = frame.Roll.Degrees()

	if view.Frontal() {
		a.frontalMetrics(report, frame.Set)
	} else {
		a.sagittalMetrics(report, frame.Set, landmark.SideOf(view))
	}

	if flag := a.visibilityFlag(view, set); flag != "" {
		report.Flags = append(report.Flags, flag)
	}
	report.Flags = append(report.Flags, a.thresholdFlags(report)...)

	return report, nil
}

func (a *PostureAnalyzer) frontalMetrics(report *types.Report, set *landmark.Set) {
	shoulderL, shoulderR := geometry.Pt(set.Get(landmark.LeftShoulder)), geometry.Pt(set.Get(landmark.RightShoulder))
	hipL, hipR := geometry.Pt(set.Get(landmark.LeftHip)), geometry.Pt(set.Get(landmark.RightHip))

	shift := geometry.HorizontalOffset(geometry.Midpoint(shoulderL, shoulderR), geometry.Midpoint(hipL, hipR))

	report.Metrics[MetricShoulderTilt] = geometry.Tilt(shoulderR, shoulderL)
	report.Metrics[MetricPelvicTilt] = geometry.Tilt(hipR, hipL)
	report.Metrics[MetricMidlineShiftPx] = shift
	report.Metrics[MetricMidlineShift] = geometry.Percent(shift, report.ShoulderWidthPx)
}

func (a *PostureAnalyzer) sagittalMetrics(report *types.Report, set *landmark.Set, side landmark.Side) {
	ear := geometry.Pt(set.Ear(side))
	shoulder := geometry.Pt(set.Shoulder(side))
	ankle := geometry.Pt(set.Ankle(side))

	plumb := geometry.HorizontalOffset(ear, ankle)
	forward := geometry.HorizontalOffset(ear, shoulder)

	report.Metrics[MetricPlumbLinePx] = plumb
	report.Metrics[MetricPlumbLine] = geometry.Percent(plumb, report.ShoulderWidthPx)
	report.Metrics[MetricForwardHeadPx] = forward
	report.Metrics[MetricForwardHead] = geometry.Percent(forward, report.ShoulderWidthPx)
	report.Metrics[MetricHeadTrunk] = geometry.VerticalDeviation(ankle, ear)
}

// visibilityFlag names every required landmark below the visibility floor
func (a *PostureAnalyzer) visibilityFlag(view types.View, set *landmark.Set) string {
	var low []string
	for _, id := range landmark.Required(view) {
		if v := set.Get(id).Visibility; v < a.config.MinVisibility {
			low = append(low, fmt.Sprintf("%s %.2f", id, v))
		}
	}
	if len(low) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] low landmark visibility (%s, minimum %.2f); metrics may be unreliable",
		view, strings.Join(low, ", "), a.config.MinVisibility)
}

// thresholdFlags evaluates each metric of the report's view independently,
// in a fixed order.
func (a *PostureAnalyzer) thresholdFlags(report *types.Report) []string {
	var flags []string
	m, view := report.Metrics, report.View

	if view.Frontal() {
		if v := m[MetricShoulderTilt]; v > a.config.ShoulderTiltDeg {
			flags = append(flags, fmt.Sprintf("[%s] possible shoulder tilt: %.1f° between shoulders (threshold %.1f°)",
				view, v, a.config.ShoulderTiltDeg))
		}
		if v := m[MetricPelvicTilt]; v > a.config.PelvicTiltDeg {
			flags = append(flags, fmt.Sprintf("[%s] possible pelvic tilt: %.1f° between hips (threshold %.1f°)",
				view, v, a.config.PelvicTiltDeg))
		}
		if v := m[MetricMidlineShift]; v > a.config.MidlineShiftPct {
			flags = append(flags, fmt.Sprintf("[%s] possible lateral spinal deviation (scoliosis indicator): midline shift %.1f%% of shoulder width (threshold %.1f%%)",
				view, v, a.config.MidlineShiftPct))
		}
		return flags
	}

	if v := m[MetricForwardHead]; v > a.config.ForwardHeadPct {
		flags = append(flags, fmt.Sprintf("[%s] possible forward head posture: ear %.1f%% of shoulder width from acromion (threshold %.1f%%)",
			view, v, a.config.ForwardHeadPct))
	}
	if v := m[MetricPlumbLine]; v > a.config.PlumbLinePct {
		flags = append(flags, fmt.Sprintf("[%s] plumb line deviation: ear to ankle offset %.1f%% of shoulder width (threshold %.1f%%)",
			view, v, a.config.PlumbLinePct))
	}
	if v := m[MetricHeadTrunk]; v > a.config.HeadTrunkDeg {
		flags = append(flags, fmt.Sprintf("[%s] head and trunk misaligned: ear to ankle line %.1f° from vertical (threshold %.1f°)",
			view, v, a.config.HeadTrunkDeg))
	}
	return flags
}
