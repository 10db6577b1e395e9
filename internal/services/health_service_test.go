package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
	"github.com/InitCore006/SeedSync-sub001/internal/source"
)

func TestHealthCheckHealthy(t *testing.T) {
	src := &source.MemorySource{Batch: market.RawBatch{Orders: rawOrders("wheat", 5)}}
	svc := NewHealthService("1.2.0", "2026-01-15", src, nil, testLogger())

	status := svc.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.2.0", status.Version)
	require.Contains(t, status.Services, "source")
	assert.Equal(t, "healthy", status.Services["source"].(ServiceHealth).Status)
	assert.Contains(t, status.Runtime, "go_version")
}

func TestHealthCheckEmptySourceDegrades(t *testing.T) {
	svc := NewHealthService("1.2.0", "", &source.MemorySource{}, nil, testLogger())

	status := svc.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "degraded", status.Services["source"].(ServiceHealth).Status)
}

func TestHealthCheckSourceFailure(t *testing.T) {
	svc := NewHealthService("1.2.0", "", &countingSource{fail: true}, nil, testLogger())

	status := svc.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	sh := status.Services["source"].(ServiceHealth)
	assert.Equal(t, "unhealthy", sh.Status)
	assert.Contains(t, sh.Message, "source offline")
}

func TestHealthCheckSnapshotEntry(t *testing.T) {
	src := &source.MemorySource{Batch: market.RawBatch{Orders: rawOrders("wheat", 5)}}
	insights := NewInsightService(src, testReportConfig(), nil, testLogger())
	svc := NewHealthService("1.2.0", "", src, insights, testLogger())

	status := svc.Check(context.Background())
	require.Contains(t, status.Services, "snapshot")
	assert.Equal(t, "not loaded", status.Services["snapshot"].(ServiceHealth).Message)

	_, err := insights.BuildReport(context.Background(), ReportRequest{})
	require.NoError(t, err)

	status = svc.Check(context.Background())
	assert.Contains(t, status.Services["snapshot"].(ServiceHealth).Message, "age")
}

func TestHealthCheckNoSource(t *testing.T) {
	svc := NewHealthService("1.2.0", "", nil, nil, testLogger())

	status := svc.Check(context.Background())
	assert.Equal(t, "unknown", status.Services["source"].(ServiceHealth).Status)
}
