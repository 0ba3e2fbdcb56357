package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func TestInitializeOTel_MetricsExposedThroughPrometheus(t *testing.T) {
	var logs bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "salespulse-test",
		ServiceVersion: "test",
		Environment:    "test",
		EnableMetrics:  true,
		Registry:       promclient.NewRegistry(),
	}, NewLogger(&logs, "info"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRun(ctx, "completed")
	metrics.RecordStep(ctx, "normalize", "completed", 25*time.Millisecond)
	metrics.RecordRows(ctx, "normalize", "dropped", 3)
	metrics.RecordTierCounts(ctx, map[string]int{"A": 2, "B": 1})

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "pipeline_runs_total")
	assert.Contains(t, text, `status="completed"`)
	assert.Contains(t, text, "pipeline_rows_total")
	assert.Contains(t, text, `kind="dropped"`)
	assert.Contains(t, text, "classification_products")
	assert.Contains(t, logs.String(), "OpenTelemetry initialized")
}

func TestInitializeOTel_DisabledUsesNoop(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "salespulse-test"}, NewLogger(io.Discard, "info"))
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Tracer)
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRun(ctx, "failed")
		m.RecordStep(ctx, "load", "failed", time.Second)
		m.RecordRows(ctx, "load", "input", 10)
		m.RecordTierCounts(ctx, map[string]int{"A": 1})
		m.RecordHTTPRequest(ctx, http.MethodGet, "/", 200, time.Millisecond)
	})

	noopMetrics, err := NewPipelineMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { noopMetrics.RecordRun(ctx, "completed") })
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{ServiceName: "svc", MetricsEnabled: true})

	assert.Equal(t, "svc", cfg.ServiceName)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
}
