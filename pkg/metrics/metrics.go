//Package metrics exposes the analyzer's Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitch_analyzer"

//Metrics groups every collector the pipeline updates. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed *prometheus.CounterVec
	detections      *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runErrors       *prometheus.CounterVec
	riskLevels      *prometheus.CounterVec
	droppedFrames   prometheus.Counter
	inFlight        prometheus.Gauge
}

//New creates the collectors and registers them on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Decoded frames that went through a localizer, by analysis kind.",
		}, []string{"kind"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Player observations produced by localizers, by team.",
		}, []string{"team"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one analysis run, by kind.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_errors_total",
			Help:      "Failed analysis runs, by kind and error class.",
		}, []string{"kind", "error"}),
		riskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Risk assessments produced, by level.",
		}, []string{"level"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_dropped_frames_total",
			Help:      "Frames the annotated renderer skipped because its queue was full.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Analysis runs currently holding a worker slot.",
		}),
	}

	m.registry.MustRegister(
		m.framesProcessed,
		m.detections,
		m.runDuration,
		m.runErrors,
		m.riskLevels,
		m.droppedFrames,
		m.inFlight,
	)

	return m
}

//Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AddFrames(kind string, n int) {
	if m == nil {
		return
	}
	m.framesProcessed.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) AddDetections(team string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.detections.WithLabelValues(team).Add(float64(n))
}

func (m *Metrics) ObserveRun(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) RecordError(kind, class string) {
	if m == nil {
		return
	}
	m.runErrors.WithLabelValues(kind, class).Inc()
}

func (m *Metrics) RecordRiskLevel(level string) {
	if m == nil {
		return
	}
	m.riskLevels.WithLabelValues(level).Inc()
}

func (m *Metrics) AddDroppedFrames(n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedFrames.Add(float64(n))
}

//RunStarted and RunFinished track the in-flight gauge
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
