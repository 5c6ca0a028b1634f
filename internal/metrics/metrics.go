package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menta2k/posture-analyzer/pkg/types"
)

// Result label values
const (
	ResultOK     = "ok"
	ResultNoBody = "no_body"
	ResultError  = "error"
)

var (
	once sync.Once

	// AnalysesTotal counts analyzed photographs by view and outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posture",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total number of analyzed photographs, labeled by view and result.",
	}, []string{"view", "result"})

	// FlagsTotal counts raised flags by view.
	FlagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posture",
		Subsystem: "analyzer",
		Name:      "flags_total",
		Help:      "Total number of flags raised, labeled by view.",
	}, []string{"view"})

	// AnalysisDurationSeconds is the time spent per photograph, landmark extraction included.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "posture",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "Time to analyze one photograph, including landmark extraction.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"view"})

	// InsightsTotal counts insight generations by role and outcome.
	InsightsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posture",
		Subsystem: "analyzer",
		Name:      "insights_total",
		Help:      "Total number of insight generations, labeled by role and result.",
	}, []string{"role", "result"})

	// InsightsDurationSeconds is the language model round trip per generation.
	InsightsDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "posture",
		Subsystem: "analyzer",
		Name:      "insights_duration_seconds",
		Help:      "Time to generate insights for one intake.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"role"})
)

// Register registers the metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			FlagsTotal,
			AnalysisDurationSeconds,
			InsightsTotal,
			InsightsDurationSeconds,
		)
	})
}

// ObserveAnalysis records the outcome of one photograph
func ObserveAnalysis(view types.View, report *types.Report, err error, elapsed time.Duration) {
	label := view.String()
	AnalysisDurationSeconds.WithLabelValues(label).Observe(elapsed.Seconds())

	switch {
	case err != nil:
		AnalysesTotal.WithLabelValues(label, ResultError).Inc()
	case report == nil || !report.OK:
		AnalysesTotal.WithLabelValues(label, ResultNoBody).Inc()
	default:
		AnalysesTotal.WithLabelValues(label, ResultOK).Inc()
		FlagsTotal.WithLabelValues(label).Add(float64(len(report.Flags)))
	}
}

// ObserveInsights records the outcome of one insight generation
func ObserveInsights(role string, err error, elapsed time.Duration) {
	InsightsDurationSeconds.WithLabelValues(role).Observe(elapsed.Seconds())
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	InsightsTotal.WithLabelValues(role, result).Inc()
}
