package exporter

import (
	"fmt"
	"time"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

// Column layouts for the two report tables.
var (
	SummaryHeaders = []string{"year", "month", "crop", "demand", "supply", "avg_price"}

	ForecastHeaders = []string{"series", "date", "predicted", "lower_bound", "upper_bound"}
)

// SummaryRecords flattens the monthly market summary into CSV rows.
func SummaryRecords(report *market.MarketReport) [][]string {
	records := make([][]string, 0, len(report.MarketSummary))
	for _, row := range report.MarketSummary {
		records = append(records, []string{
			formatInt(int64(row.Year)),
			formatInt(int64(row.Month)),
			row.CropType,
			formatFloat(row.Demand),
			formatFloat(row.Supply),
			formatFloat(row.AvgPrice),
		})
	}
	return records
}

// ForecastRecords flattens every forecast in the report into long-format
// rows, one per forecast day, labeled by series.
func ForecastRecords(report *market.MarketReport) [][]string {
	var records [][]string

	add := func(name string, f *market.ForecastResult) {
		if f == nil {
			return
		}
		for _, p := range f.Points {
			records = append(records, []string{
				name,
				p.Date.Format("2006-01-02"),
				formatFloat(p.Value),
				formatFloat(p.Lower),
				formatFloat(p.Upper),
			})
		}
	}

	switch ins := report.RoleInsights.(type) {
	case *market.FarmerInsight:
		add("price", ins.PriceForecast.Forecast)
	case *market.FPOInsight:
		add("demand", ins.DemandForecast.Forecast)
		add("price", ins.PriceForecast.Forecast)
	case *market.ProcessorInsight:
		add("supply", ins.SupplyForecast.Forecast)
		add("price", ins.PriceForecast.Forecast)
	case *market.RetailerInsight:
		add("availability", ins.AvailabilityForecast.Forecast)
		add("price", ins.PriceForecast.Forecast)
	}

	for _, cf := range report.CropForecasts {
		add(cf.Crop+"_demand", cf.Demand)
		add(cf.Crop+"_price", cf.Price)
	}
	return records
}

// WriteReportFiles writes the summary and forecast tables of one report under
// the writer's reports directory and returns the file names. The forecast
// table streams row by row; long-horizon multi-crop reports produce a few
// thousand rows.
func (w *CSVWriter) WriteReportFiles(report *market.MarketReport, baseName string) ([]string, error) {
	if baseName == "" {
		baseName = fmt.Sprintf("market_report_%s", report.GeneratedAt.Format("20060102_150405"))
	}

	summaryFile := baseName + "_summary.csv"
	if err := w.WriteCSV(summaryFile, WriteOptions{
		Headers:   SummaryHeaders,
		Records:   SummaryRecords(report),
		BOMPrefix: true,
	}); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	written := []string{summaryFile}

	forecasts := ForecastRecords(report)
	if len(forecasts) > 0 {
		forecastFile := baseName + "_forecasts.csv"
		sw, err := w.CreateStreamWriter(forecastFile, ForecastHeaders)
		if err != nil {
			return nil, fmt.Errorf("write forecasts: %w", err)
		}
		for _, record := range forecasts {
			if err := sw.WriteRecord(record); err != nil {
				sw.Close()
				return nil, fmt.Errorf("write forecast row: %w", err)
			}
		}
		if err := sw.Close(); err != nil {
			return nil, fmt.Errorf("close forecasts: %w", err)
		}
		written = append(written, forecastFile)
	}
	return written, nil
}

// ExportFileName derives a download file name for the HTTP export endpoint.
func ExportFileName(role market.Role, now time.Time) string {
	name := "market_report"
	if role != market.RoleNone {
		name += "_" + string(role)
	}
	return name + "_" + now.Format("20060102") + ".csv"
}
