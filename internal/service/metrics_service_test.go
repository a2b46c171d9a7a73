package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceObserveAnalysis(t *testing.T) {
	m := NewMetricsService()
	m.ObserveAnalysis("summary", 2*time.Millisecond)
	m.ObserveAnalysis("summary", 4*time.Millisecond)
	m.ObserveAnalysis("analyze", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysisTotal.WithLabelValues("summary")))
	snapshot := m.Snapshot()
	assert.Equal(t, uint64(3), snapshot.AnalysesTotal)
	assert.InDelta(t, 2.33, snapshot.AverageAnalysisDurationMs, 0.01)
}

func TestMetricsServiceRecordWarmup(t *testing.T) {
	m := NewMetricsService()
	m.RecordWarmup(true)
	m.RecordWarmup(false)
	m.RecordWarmup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.warmupJobs.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.warmupJobs.WithLabelValues("failure")))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students/:id/performance/summary", http.StatusOK, 5*time.Millisecond)
	m.ObserveAnalysis("summary", time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "performance_analysis_duration_seconds")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveAnalysis("summary", time.Millisecond)
	m.RecordWarmup(true)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Zero(t, m.Snapshot().AnalysesTotal)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
