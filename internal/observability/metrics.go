package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// rendering engine.
type Metrics struct {
	FieldsComputed  prometheus.Counter
	FieldErrors     prometheus.Counter
	FramesRendered  *prometheus.CounterVec // labels: kind={measured,synthetic}
	BatchTimestamps prometheus.Histogram
	FieldDuration   prometheus.Histogram
	BatchDuration   prometheus.Histogram

	DegenerateBatches     prometheus.Counter
	BoundaryFallbacks     prometheus.Counter
	AnimationStepsSkipped prometheus.Counter
	SamplesSkipped        prometheus.Counter

	JobsRunning   prometheus.Gauge
	JobsCompleted *prometheus.CounterVec // labels: outcome={done,failed,cancelled,superseded}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FieldsComputed,
		m.FieldErrors,
		m.FramesRendered,
		m.BatchTimestamps,
		m.FieldDuration,
		m.BatchDuration,
		m.DegenerateBatches,
		m.BoundaryFallbacks,
		m.AnimationStepsSkipped,
		m.SamplesSkipped,
		m.JobsRunning,
		m.JobsCompleted,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FieldsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "fields_computed_total",
			Help:      "Total scalar fields interpolated successfully.",
		}),
		FieldErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "field_errors_total",
			Help:      "Total per-timestamp field computations that failed.",
		}),
		FramesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "frames_rendered_total",
			Help:      "Frames rendered by kind (measured or synthetic).",
		}, []string{"kind"}),
		BatchTimestamps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatmap",
			Name:      "batch_timestamps",
			Help:      "Number of timestamps per generation batch.",
			Buckets:   []float64{1, 2, 4, 8, 12, 24, 52, 104},
		}),
		FieldDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatmap",
			Name:      "field_duration_seconds",
			Help:      "Duration of one field interpolation (IDW plus smoothing).",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatmap",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete generation batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		DegenerateBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "degenerate_batches_total",
			Help:      "Batches whose global range collapsed to a single value.",
		}),
		BoundaryFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "boundary_fallbacks_total",
			Help:      "Batches rendered against the rectangular fallback extent.",
		}),
		AnimationStepsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "animation_steps_skipped_total",
			Help:      "Synthetic animation steps skipped for missing stations.",
		}),
		SamplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "samples_skipped_total",
			Help:      "Malformed sample records dropped during ingestion.",
		}),
		JobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatmap",
			Name:      "jobs_running",
			Help:      "Render jobs currently executing.",
		}),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatmap",
			Name:      "jobs_completed_total",
			Help:      "Render jobs finished by outcome.",
		}, []string{"outcome"}),
	}
}
