package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// createTestMetrics creates metrics outside the default registry so
// tests do not conflict with each other.
func createTestMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "test", Subsystem: "http", Name: "requests_total"},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "test", Subsystem: "http", Name: "request_duration_seconds"},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: "test", Subsystem: "http", Name: "requests_in_flight"},
		),
		EditRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "test", Subsystem: "edit", Name: "requests_total"},
			[]string{"tier", "status"},
		),
		EditDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "test", Subsystem: "edit", Name: "duration_seconds"},
			[]string{"model"},
		),
		QuotaRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: "test", Subsystem: "edit", Name: "quota_rejections_total"},
		),
		GatewayRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "test", Subsystem: "gateway", Name: "requests_total"},
			[]string{"model", "status"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "test", Subsystem: "gateway", Name: "request_duration_seconds"},
			[]string{"model"},
		),
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := createTestMetrics()

	m.RecordHTTPRequest("POST", "/api/v1/edits", 200, 150*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/edits", 403, 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/edits", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/edits", "4xx")))
}

func TestRecordEdit(t *testing.T) {
	m := createTestMetrics()

	m.RecordEdit("free", "ok", "gemini-2.5-flash-image", 3*time.Second)
	m.RecordEdit("free", "quota_exceeded", "", time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EditRequestsTotal.WithLabelValues("free", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EditRequestsTotal.WithLabelValues("free", "quota_exceeded")))
}

func TestRecordGatewayRequest(t *testing.T) {
	m := createTestMetrics()

	m.RecordGatewayRequest("gemini-3-pro-image", "ok", 2*time.Second)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("gemini-3-pro-image", "ok")))
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{403, "4xx"},
		{500, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusLabel(tt.status))
	}
}
