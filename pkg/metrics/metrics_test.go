package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpMetrics(t *testing.T) {
	m := NewNoOpMetrics()
	assert.NotPanics(t, func() {
		m.Counter("c", 1, nil)
		m.Gauge("g", 1, nil)
		m.Histogram("h", 1, nil)
		m.Timer("t", 1, nil)
	})
}

func TestPrometheusCounter(t *testing.T) {
	m := NewPrometheusMetrics("hr")
	labels := map[string]string{"op": "move", "result": "ok"}

	m.Counter("hierarchy_operations_total", 1, labels)
	m.Counter("hierarchy_operations_total", 2, labels)
	m.Counter("hierarchy_operations_total", 1, map[string]string{"op": "move", "result": "error"})

	vec := m.counters["hierarchy_operations_total"]
	require.NotNil(t, vec)
	assert.Equal(t, float64(3), testutil.ToFloat64(vec.WithLabelValues("move", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(vec.WithLabelValues("move", "error")))
}

func TestPrometheusCounterIgnoresNegative(t *testing.T) {
	m := NewPrometheusMetrics("hr")
	m.Counter("c_total", -1, nil)
	assert.NotContains(t, m.counters, "c_total")
}

func TestPrometheusGauge(t *testing.T) {
	m := NewPrometheusMetrics("hr")
	m.Gauge("units", 5, nil)
	m.Gauge("units", 3, nil)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.gauges["units"].WithLabelValues()))
}

func TestPrometheusMismatchedLabelsDropped(t *testing.T) {
	m := NewPrometheusMetrics("hr")
	m.Timer("op_seconds", 0.1, map[string]string{"op": "create"})
	assert.NotPanics(t, func() {
		m.Timer("op_seconds", 0.2, map[string]string{"other": "x"})
	})
	assert.Equal(t, 1, testutil.CollectAndCount(m.histograms["op_seconds"]))
}

func TestHandler(t *testing.T) {
	m := NewPrometheusMetrics("hr")
	m.Counter("http_requests_total", 1, map[string]string{"method": "GET", "path": "/health", "status": "200"})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hr_http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
