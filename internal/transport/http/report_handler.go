package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/InitCore006/SeedSync-sub001/internal/errors"
	"github.com/InitCore006/SeedSync-sub001/internal/exporter"
	"github.com/InitCore006/SeedSync-sub001/internal/market"
	"github.com/InitCore006/SeedSync-sub001/internal/services"
)

// ReportHandler serves the market report endpoints.
type ReportHandler struct {
	service      *services.InsightService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	clock        func() time.Time
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.InsightService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
		validate:     validator.New(),
		clock:        time.Now,
	}
}

// RegisterRoutes registers the market report routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/report", h.GetReport)
		r.Get("/report/export", h.ExportReport)
		r.Get("/summary", h.GetSummary)
	})
}

// reportParams are the validated query parameters of the report endpoints.
type reportParams struct {
	Role  string `validate:"omitempty,oneof=farmer fpo processor retailer"`
	Crop  string `validate:"omitempty,max=64"`
	State string `validate:"omitempty,max=64"`
	Buyer string `validate:"omitempty,max=32"`
	Top   int    `validate:"omitempty,min=1,max=100"`
	Table string `validate:"omitempty,oneof=summary forecasts"`
}

func (h *ReportHandler) parseParams(r *http.Request) (reportParams, error) {
	q := r.URL.Query()
	params := reportParams{
		Role:  q.Get("role"),
		Crop:  q.Get("crop"),
		State: q.Get("state"),
		Buyer: q.Get("buyer"),
		Table: q.Get("table"),
	}

	if raw := q.Get("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return params, apierrors.ErrValidation("top", "must be an integer")
		}
		params.Top = top
	}

	if err := h.validate.Struct(params); err != nil {
		var fields []apierrors.ValidationError
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: "failed " + fe.Tag() + " validation",
				})
			}
			return params, apierrors.NewValidationErrors(fields)
		}
		return params, apierrors.ErrValidationFailed
	}
	return params, nil
}

// GetReport builds and returns the role-scoped market report.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := h.parseParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "building market report",
		slog.String("role", params.Role),
		slog.String("crop", params.Crop),
	)

	report, err := h.service.BuildReport(ctx, services.ReportRequest{
		Role:      params.Role,
		Crop:      params.Crop,
		State:     params.State,
		BuyerType: params.Buyer,
		TopN:      params.Top,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// summaryResponse is the trimmed payload of the summary endpoint.
type summaryResponse struct {
	GeneratedAt       time.Time               `json:"generated_at"`
	DataAvailable     bool                    `json:"data_available"`
	TotalTransactions int                     `json:"total_transactions"`
	DateRange         market.DateRange        `json:"date_range"`
	MarketSummary     []market.MonthlySummary `json:"market_summary"`
}

// GetSummary returns only the monthly market summary, without role insights
// or forecasts.
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.BuildReport(r.Context(), services.ReportRequest{
		Crop:      params.Crop,
		State:     params.State,
		BuyerType: params.Buyer,
		TopN:      params.Top,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, summaryResponse{
		GeneratedAt:       report.GeneratedAt,
		DataAvailable:     report.DataAvailable,
		TotalTransactions: report.TotalTransactions,
		DateRange:         report.DateRange,
		MarketSummary:     report.MarketSummary,
	})
}

// ExportReport builds the report and streams one of its tables as CSV.
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.BuildReport(r.Context(), services.ReportRequest{
		Role:      params.Role,
		Crop:      params.Crop,
		State:     params.State,
		BuyerType: params.Buyer,
		TopN:      params.Top,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	headers := exporter.SummaryHeaders
	records := exporter.SummaryRecords(report)
	if params.Table == "forecasts" {
		headers = exporter.ForecastHeaders
		records = exporter.ForecastRecords(report)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+exporter.ExportFileName(market.Role(params.Role), h.clock()))

	if err := exporter.Encode(w, headers, records, true); err != nil {
		// Headers are already gone; log and give up on the response.
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("error", err.Error()))
	}
}
