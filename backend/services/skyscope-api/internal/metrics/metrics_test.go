package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"skyscope/backend/services/skyscope-api/internal/models"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()
	m.ObserveRequest("/sensors", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.Registration("registered")
	m.Registration("registered")
	m.Publish(models.Measurement{})
	m.Gauge("live_subscribers", "Open live feed connections.", func() float64 { return 3 })

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/sensors", "GET", "200")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.registrations.WithLabelValues("registered")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.measurements))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "skyscope_measurements_ingested_total 1")
	require.Contains(t, string(body), "skyscope_live_subscribers 3")
}
