package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.AddFrames("match", 3)
	m.AddFrames("match", 2)
	m.AddDetections("teamA", 4)
	m.AddDetections("teamB", 0)
	m.RecordError("risk", "model_not_found")
	m.RecordRiskLevel("HIGH")
	m.AddDroppedFrames(2)
	m.RunStarted()
	m.RunStarted()
	m.RunFinished()

	assert.Equal(t, 5.0, testutil.ToFloat64(m.framesProcessed.WithLabelValues("match")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.detections.WithLabelValues("teamA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runErrors.WithLabelValues("risk", "model_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.riskLevels.WithLabelValues("HIGH")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.droppedFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddFrames("match", 1)
		m.ObserveRun("match", 1)
		m.RecordError("match", "x")
		m.RunStarted()
		m.RunFinished()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun("risk", 1.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "pitch_analyzer_run_duration_seconds")
}
