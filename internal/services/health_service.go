package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/InitCore006/SeedSync-sub001/internal/source"
)

// HealthService reports process and data-source health.
type HealthService struct {
	version   string
	buildTime string
	source    source.TransactionSource
	insights  *InsightService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth is one component's health entry.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service.
func NewHealthService(version, buildTime string, src source.TransactionSource, insights *InsightService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		source:    src,
		insights:  insights,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check assembles the current health status. The source is probed with a
// short deadline so a hung file share cannot stall the endpoint.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}
	if s.buildTime != "" {
		status.Runtime["build_time"] = s.buildTime
	}

	status.Services["source"] = s.checkSource(ctx)
	if s.insights != nil {
		status.Services["snapshot"] = ServiceHealth{
			Status:  "healthy",
			Message: snapshotMessage(s.insights.SnapshotAge()),
		}
	}

	for _, v := range status.Services {
		if sh, ok := v.(ServiceHealth); ok && sh.Status != "healthy" {
			status.Status = "degraded"
		}
	}
	return status
}

func (s *HealthService) checkSource(ctx context.Context) ServiceHealth {
	if s.source == nil {
		return ServiceHealth{Status: "unknown", Message: "no source configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	batch, err := s.source.Fetch(probeCtx)
	if err != nil {
		s.logger.WarnContext(ctx, "source health probe failed",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()),
		)
		return ServiceHealth{Status: "unhealthy", Message: err.Error()}
	}
	if batch.Size() == 0 {
		return ServiceHealth{Status: "degraded", Message: "source has no records"}
	}
	return ServiceHealth{Status: "healthy"}
}

func snapshotMessage(age time.Duration) string {
	if age == 0 {
		return "not loaded"
	}
	return "age " + age.Round(time.Second).String()
}
