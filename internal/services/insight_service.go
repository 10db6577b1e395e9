package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/InitCore006/SeedSync-sub001/internal/config"
	apperrors "github.com/InitCore006/SeedSync-sub001/internal/errors"
	"github.com/InitCore006/SeedSync-sub001/internal/infrastructure"
	"github.com/InitCore006/SeedSync-sub001/internal/market"
	"github.com/InitCore006/SeedSync-sub001/internal/source"
)

// ReportRequest carries the caller-supplied report parameters.
type ReportRequest struct {
	// Role scopes the insight section. Empty builds the un-scoped report.
	Role string
	// Crop narrows the transaction snapshot and the per-crop forecasts.
	Crop string
	// State narrows the transaction snapshot to one state.
	State string
	// BuyerType narrows the transaction snapshot to one buyer type.
	BuyerType string
	// TopN limits ranked segment lists. Zero uses the configured default.
	TopN int
}

// InsightService builds role-scoped market reports from a cached transaction
// snapshot.
type InsightService struct {
	source  source.TransactionSource
	cfg     config.ReportConfig
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	mu        sync.Mutex
	batch     market.RawBatch
	fetchedAt time.Time
}

// NewInsightService creates an insight service. metrics may be nil when
// metrics are disabled.
func NewInsightService(src source.TransactionSource, cfg config.ReportConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightService{
		source:  src,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "insight_service")),
	}
}

// BuildReport loads the snapshot, normalizes it with the request filter and
// synthesizes the report. The build is bounded by the configured timeout.
func (s *InsightService) BuildReport(ctx context.Context, req ReportRequest) (*market.MarketReport, error) {
	started := time.Now()

	role, err := market.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	batch, err := s.snapshot(ctx)
	if err != nil {
		infrastructure.RecordReportBuild(ctx, s.metrics, req.Role, time.Since(started), err)
		return nil, apperrors.SourceError(err)
	}

	res := market.Normalize(batch, market.Filter{
		Crop:      req.Crop,
		State:     req.State,
		BuyerType: req.BuyerType,
	})
	if s.metrics != nil && res.Dropped > 0 {
		s.metrics.NormalizeDropsTotal.Add(ctx, int64(res.Dropped))
	}

	topN := req.TopN
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	buildCtx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeout)
	defer cancel()

	report, err := market.BuildReport(buildCtx, role, res.Transactions, market.ReportOptions{
		TopN:       topN,
		CropFilter: req.Crop,
	})
	infrastructure.RecordReportBuild(ctx, s.metrics, req.Role, time.Since(started), err)
	if err != nil {
		return nil, err
	}
	report.DroppedRecords = res.Dropped

	if s.metrics != nil {
		if n := countFallbacks(report); n > 0 {
			s.metrics.ForecastFallbacks.Add(ctx, int64(n))
		}
	}

	s.logger.InfoContext(ctx, "report built",
		slog.String("role", req.Role),
		slog.Int("transactions", report.TotalTransactions),
		slog.Int("dropped", report.DroppedRecords),
		slog.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

// snapshot returns the raw batch, re-reading the source only after the TTL
// has elapsed.
func (s *InsightService) snapshot(ctx context.Context) (market.RawBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.cfg.SnapshotTTL {
		return s.batch, nil
	}

	batch, err := s.source.Fetch(ctx)
	if err != nil {
		// A stale snapshot beats no report when the source is flapping.
		if !s.fetchedAt.IsZero() {
			s.logger.WarnContext(ctx, "source fetch failed, serving stale snapshot",
				slog.String("source", s.source.Name()),
				slog.String("error", err.Error()),
			)
			return s.batch, nil
		}
		return market.RawBatch{}, err
	}

	s.batch = batch
	s.fetchedAt = time.Now()
	if s.metrics != nil {
		s.metrics.SnapshotRefreshTotal.Add(ctx, 1)
		s.metrics.SourceRecordsTotal.Add(ctx, int64(batch.Size()))
	}
	s.logger.InfoContext(ctx, "snapshot refreshed",
		slog.String("source", s.source.Name()),
		slog.Int("records", batch.Size()),
	)
	return s.batch, nil
}

// Invalidate drops the cached snapshot so the next build re-reads the source.
func (s *InsightService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchedAt = time.Time{}
	s.batch = market.RawBatch{}
}

// SnapshotAge reports how old the cached snapshot is. Zero means no snapshot
// has been loaded yet.
func (s *InsightService) SnapshotAge() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchedAt.IsZero() {
		return 0
	}
	return time.Since(s.fetchedAt)
}

// countFallbacks counts forecasts in the report that used the mean fallback.
func countFallbacks(report *market.MarketReport) int {
	n := 0
	add := func(sec market.ForecastSection) {
		if sec.Forecast != nil && sec.Forecast.UsedFallback {
			n++
		}
	}

	switch ins := report.RoleInsights.(type) {
	case *market.FarmerInsight:
		add(ins.PriceForecast)
	case *market.FPOInsight:
		add(ins.DemandForecast)
		add(ins.PriceForecast)
	case *market.ProcessorInsight:
		add(ins.SupplyForecast)
		add(ins.PriceForecast)
	case *market.RetailerInsight:
		add(ins.AvailabilityForecast)
		add(ins.PriceForecast)
	}

	for _, cf := range report.CropForecasts {
		if cf.Demand != nil && cf.Demand.UsedFallback {
			n++
		}
		if cf.Price != nil && cf.Price.UsedFallback {
			n++
		}
	}
	return n
}
