package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the application-specific instruments.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Report pipeline metrics
	ReportBuildsTotal    metric.Int64Counter
	ReportBuildDuration  metric.Float64Histogram
	ForecastFallbacks    metric.Int64Counter
	SourceRecordsTotal   metric.Int64Counter
	NormalizeDropsTotal  metric.Int64Counter
	SnapshotRefreshTotal metric.Int64Counter
}

// CreateBusinessMetrics registers the application instruments on the meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	reportBuildsTotal, err := meter.Int64Counter(
		"report_builds_total",
		metric.WithDescription("Total number of market report builds"),
	)
	if err != nil {
		return nil, err
	}

	reportBuildDuration, err := meter.Float64Histogram(
		"report_build_duration_seconds",
		metric.WithDescription("Market report build duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	forecastFallbacks, err := meter.Int64Counter(
		"forecast_fallbacks_total",
		metric.WithDescription("Forecasts that fell back to the mean model"),
	)
	if err != nil {
		return nil, err
	}

	sourceRecordsTotal, err := meter.Int64Counter(
		"source_records_total",
		metric.WithDescription("Raw records read from transaction sources"),
	)
	if err != nil {
		return nil, err
	}

	normalizeDropsTotal, err := meter.Int64Counter(
		"normalize_dropped_records_total",
		metric.WithDescription("Raw records dropped during normalization"),
	)
	if err != nil {
		return nil, err
	}

	snapshotRefreshTotal, err := meter.Int64Counter(
		"snapshot_refresh_total",
		metric.WithDescription("Transaction snapshot reloads from source"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		HTTPActiveRequests:   httpActiveRequests,
		ReportBuildsTotal:    reportBuildsTotal,
		ReportBuildDuration:  reportBuildDuration,
		ForecastFallbacks:    forecastFallbacks,
		SourceRecordsTotal:   sourceRecordsTotal,
		NormalizeDropsTotal:  normalizeDropsTotal,
		SnapshotRefreshTotal: snapshotRefreshTotal,
	}, nil
}

// RecordReportBuild records one report build with its outcome.
func RecordReportBuild(ctx context.Context, m *BusinessMetrics, role string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("status", status),
	)

	m.ReportBuildsTotal.Add(ctx, 1, attrs)
	m.ReportBuildDuration.Record(ctx, duration.Seconds(), attrs)
}
