package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{EnableMetrics: false}, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelNoneExporter(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "none"}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, providers.MeterProvider)
}

func TestInitializeOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "otlp"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestInitializeOTelPrometheus(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestCreateBusinessMetrics(t *testing.T) {
	m, err := CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	require.NotNil(t, m.HTTPRequestsTotal)
	require.NotNil(t, m.ReportBuildsTotal)
	require.NotNil(t, m.SnapshotRefreshTotal)

	// Recording against the noop meter must not panic.
	RecordReportBuild(context.Background(), m, "farmer", 0, nil)
	RecordReportBuild(context.Background(), nil, "farmer", 0, nil)
}
