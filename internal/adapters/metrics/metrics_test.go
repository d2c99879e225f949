package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.InstallerRegistered(false)
	m.InstallerRegistered(true)
	m.InstallerRegistered(true)
	m.WorkerOperation("setup", nil)
	m.WorkerOperation("setup", errors.New("boom"))
	m.WorkerOperation("restart", nil)
	m.WorkersConnected(3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Registrations.WithLabelValues("false")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Registrations.WithLabelValues("true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("setup", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("setup", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("restart", "ok")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.Connected), 0)

	m.WorkersConnected(1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Connected), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.WorkersConnected(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lockship_workers_connected 2")
}
