package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_HasRuntimeCollectors(t *testing.T) {
	reg := NewRegistry()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/", "/", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveLabels(map[models.Label]int{"Excellent": 2, "Poor": 1, "Good": 0})
	m.ObserveLabels(map[models.Label]int{"Excellent": 1})
	m.ObserveStage("classify", 20*time.Millisecond)
	m.ObserveReport(OutcomeSuccess)
	m.ObserveReport(OutcomeNoMatch)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsScoredTotal.WithLabelValues("Excellent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsScoredTotal.WithLabelValues("Poor")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RecordsScoredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues(OutcomeNoMatch)))

	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration, "sentireport_pipeline_duration_seconds"))
}
