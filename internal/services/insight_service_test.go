package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InitCore006/SeedSync-sub001/internal/config"
	apperrors "github.com/InitCore006/SeedSync-sub001/internal/errors"
	"github.com/InitCore006/SeedSync-sub001/internal/market"
	"github.com/InitCore006/SeedSync-sub001/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReportConfig() config.ReportConfig {
	return config.ReportConfig{
		BuildTimeout: 10 * time.Second,
		TopN:         10,
		SnapshotTTL:  time.Minute,
	}
}

// rawOrders generates n valid order records, one per day.
func rawOrders(crop string, n int) []market.MarketplaceOrder {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	orders := make([]market.MarketplaceOrder, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, market.MarketplaceOrder{
			OrderID:   fmt.Sprintf("%s-%d", crop, i),
			OrderDate: start.AddDate(0, 0, i).Format("2006-01-02"),
			Crop:      crop,
			State:     "punjab",
			Qty:       "100",
			UnitPrice: "2400",
			BuyerRole: "trader",
			Status:    "completed",
		})
	}
	return orders
}

// countingSource wraps another source and counts fetches.
type countingSource struct {
	inner   source.TransactionSource
	fetches int
	fail    bool
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(ctx context.Context) (market.RawBatch, error) {
	s.fetches++
	if s.fail {
		return market.RawBatch{}, errors.New("source offline")
	}
	return s.inner.Fetch(ctx)
}

func TestBuildReportInvalidRole(t *testing.T) {
	svc := NewInsightService(&source.MemorySource{}, testReportConfig(), nil, testLogger())

	_, err := svc.BuildReport(context.Background(), ReportRequest{Role: "wholesaler"})
	assert.ErrorIs(t, err, market.ErrInvalidRole)
}

func TestBuildReportEmptySource(t *testing.T) {
	svc := NewInsightService(&source.MemorySource{}, testReportConfig(), nil, testLogger())

	report, err := svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)
	assert.False(t, report.DataAvailable)
	assert.Zero(t, report.TotalTransactions)
}

func TestBuildReportSourceFailure(t *testing.T) {
	src := &countingSource{fail: true}
	svc := NewInsightService(src, testReportConfig(), nil, testLogger())

	_, err := svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SOURCE_ERROR", apiErr.ErrorCode)
}

func TestBuildReportFullPipeline(t *testing.T) {
	src := &source.MemorySource{Batch: market.RawBatch{Orders: rawOrders("wheat", 40)}}
	svc := NewInsightService(src, testReportConfig(), nil, testLogger())

	report, err := svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)

	assert.True(t, report.DataAvailable)
	assert.Equal(t, 40, report.TotalTransactions)
	assert.Equal(t, market.RoleFarmer, report.Role)
	require.IsType(t, &market.FarmerInsight{}, report.RoleInsights)
}

func TestBuildReportCountsDroppedRecords(t *testing.T) {
	batch := market.RawBatch{Orders: rawOrders("wheat", 35)}
	batch.Orders = append(batch.Orders, market.MarketplaceOrder{
		OrderID:   "BAD-1",
		OrderDate: "not-a-date",
		Crop:      "wheat",
		Qty:       "10",
		UnitPrice: "100",
	})
	svc := NewInsightService(&source.MemorySource{Batch: batch}, testReportConfig(), nil, testLogger())

	report, err := svc.BuildReport(context.Background(), ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, 35, report.TotalTransactions)
	assert.Equal(t, 1, report.DroppedRecords)
}

func TestBuildReportCropFilter(t *testing.T) {
	batch := market.RawBatch{Orders: append(rawOrders("wheat", 35), rawOrders("rice", 35)...)}
	svc := NewInsightService(&source.MemorySource{Batch: batch}, testReportConfig(), nil, testLogger())

	report, err := svc.BuildReport(context.Background(), ReportRequest{Role: "fpo", Crop: "rice"})
	require.NoError(t, err)

	assert.Equal(t, 35, report.TotalTransactions)
	require.Len(t, report.CropForecasts, 1)
	assert.Equal(t, "rice", report.CropForecasts[0].Crop)
}

func TestSnapshotCached(t *testing.T) {
	src := &countingSource{inner: &source.MemorySource{Batch: market.RawBatch{Orders: rawOrders("wheat", 35)}}}
	svc := NewInsightService(src, testReportConfig(), nil, testLogger())

	_, err := svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)
	_, err = svc.BuildReport(context.Background(), ReportRequest{Role: "retailer"})
	require.NoError(t, err)

	assert.Equal(t, 1, src.fetches)

	svc.Invalidate()
	_, err = svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)
}

func TestSnapshotServedStaleOnSourceFailure(t *testing.T) {
	src := &countingSource{inner: &source.MemorySource{Batch: market.RawBatch{Orders: rawOrders("wheat", 35)}}}
	cfg := testReportConfig()
	cfg.SnapshotTTL = time.Nanosecond
	svc := NewInsightService(src, cfg, nil, testLogger())

	report, err := svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)
	require.True(t, report.DataAvailable)

	// TTL has elapsed and the source is now down; the stale snapshot serves.
	src.fail = true
	report, err = svc.BuildReport(context.Background(), ReportRequest{Role: "farmer"})
	require.NoError(t, err)
	assert.Equal(t, 35, report.TotalTransactions)
	assert.Equal(t, 2, src.fetches)
}

func TestSnapshotAge(t *testing.T) {
	svc := NewInsightService(&source.MemorySource{}, testReportConfig(), nil, testLogger())
	assert.Zero(t, svc.SnapshotAge())

	_, err := svc.BuildReport(context.Background(), ReportRequest{})
	require.NoError(t, err)
	assert.Greater(t, svc.SnapshotAge(), time.Duration(0))
}

func TestCountFallbacks(t *testing.T) {
	fallback := &market.ForecastResult{UsedFallback: true}
	fitted := &market.ForecastResult{}

	report := &market.MarketReport{
		RoleInsights: &market.FPOInsight{
			DemandForecast: market.ForecastSection{Forecast: fallback},
			PriceForecast:  market.ForecastSection{Forecast: fitted},
		},
		CropForecasts: []market.CropForecast{
			{Crop: "wheat", Demand: fallback, Price: fallback},
			{Crop: "rice", Error: "insufficient data"},
		},
	}
	assert.Equal(t, 3, countFallbacks(report))
}
