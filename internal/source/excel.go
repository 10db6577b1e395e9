package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

// Sheet name candidates per origin. Workbooks from the field are not
// consistent about naming, so each origin is located by trying candidates
// case-insensitively.
var (
	orderSheets = []string{"Orders", "Marketplace Orders", "orders"}
	lotSheets   = []string{"Lot Sales", "LotSales", "Lots", "lot_sales"}
	batchSheets = []string{"Processing Batches", "Batches", "processing_batches"}
)

// ExcelSource reads all three origins from a single workbook. An origin whose
// sheet is absent contributes no records; a workbook with none of the three
// sheets is an error.
type ExcelSource struct {
	Path string
}

// NewExcelSource creates an Excel source for the workbook at path.
func NewExcelSource(path string) *ExcelSource {
	return &ExcelSource{Path: path}
}

func (s *ExcelSource) Name() string { return "excel:" + s.Path }

func (s *ExcelSource) Fetch(ctx context.Context) (market.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return market.RawBatch{}, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return market.RawBatch{}, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	var batch market.RawBatch
	found := 0

	if rows := sheetRows(f, orderSheets); rows != nil {
		found++
		batch.Orders, err = parseOrders(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("orders sheet: %w", err)
		}
	}
	if rows := sheetRows(f, lotSheets); rows != nil {
		found++
		batch.Lots, err = parseLots(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("lot sales sheet: %w", err)
		}
	}
	if rows := sheetRows(f, batchSheets); rows != nil {
		found++
		batch.Batches, err = parseBatches(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("processing batches sheet: %w", err)
		}
	}

	if found == 0 {
		return market.RawBatch{}, fmt.Errorf("workbook %s has no recognized sheets", s.Path)
	}
	return batch, nil
}

// sheetRows finds the first sheet matching any candidate name and returns its
// rows, or nil when no sheet matches.
func sheetRows(f *excelize.File, candidates []string) [][]string {
	names := f.GetSheetList()
	for _, want := range candidates {
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				rows, err := f.GetRows(name)
				if err != nil {
					return nil
				}
				return rows
			}
		}
	}
	return nil
}
