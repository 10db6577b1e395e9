// Command market-report builds a role-scoped market report from a data
// directory and writes it as JSON plus CSV tables, without running the
// server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/InitCore006/SeedSync-sub001/internal/app"
	"github.com/InitCore006/SeedSync-sub001/internal/exporter"
	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

func main() {
	dataDir := flag.String("data", "data", "directory holding the raw transaction exports")
	outputDir := flag.String("out", "data/reports", "output directory for report files")
	role := flag.String("role", "", "report role: farmer, fpo, processor or retailer (empty for un-scoped)")
	crop := flag.String("crop", "", "restrict the report to one crop")
	state := flag.String("state", "", "restrict the report to one state")
	topN := flag.Int("top", 10, "length of ranked segment lists")
	timeout := flag.Duration("timeout", 60*time.Second, "overall build timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	parsedRole, err := market.ParseRole(*role)
	if err != nil {
		slog.Error("invalid role", "role", *role, "hint", "use farmer, fpo, processor or retailer")
		os.Exit(1)
	}

	src, err := app.BuildSource(*dataDir)
	if err != nil {
		slog.Error("failed to configure source", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	slog.Info("loading transactions", "source", src.Name())
	batch, err := src.Fetch(ctx)
	if err != nil {
		slog.Error("failed to read transactions", "error", err)
		os.Exit(1)
	}
	if batch.Size() == 0 {
		slog.Error("no raw records found", "data_dir", *dataDir)
		os.Exit(1)
	}

	res := market.Normalize(batch, market.Filter{Crop: *crop, State: *state})
	slog.Info("normalized transactions",
		"raw", batch.Size(),
		"transactions", len(res.Transactions),
		"dropped", res.Dropped)

	report, err := market.BuildReport(ctx, parsedRole, res.Transactions, market.ReportOptions{
		TopN:       *topN,
		CropFilter: *crop,
	})
	if err != nil {
		slog.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	report.DroppedRecords = res.Dropped

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	baseName := "market_report"
	if parsedRole != market.RoleNone {
		baseName += "_" + string(parsedRole)
	}
	baseName += "_" + report.GeneratedAt.Format("20060102_150405")

	jsonPath := filepath.Join(*outputDir, baseName+".json")
	if err := writeJSON(jsonPath, report); err != nil {
		slog.Error("failed to write report json", "error", err)
		os.Exit(1)
	}
	slog.Info("wrote report", "path", jsonPath)

	writer := exporter.NewCSVWriter(*outputDir, logger)
	files, err := writer.WriteReportFiles(report, baseName)
	if err != nil {
		slog.Error("failed to write report csv", "error", err)
		os.Exit(1)
	}
	for _, f := range files {
		slog.Info("wrote report table", "path", filepath.Join(*outputDir, f))
	}
}

func writeJSON(path string, report *market.MarketReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
