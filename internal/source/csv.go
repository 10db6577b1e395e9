package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

// Default file names for the three trade export origins.
const (
	OrdersFile  = "orders.csv"
	LotsFile    = "lot_sales.csv"
	BatchesFile = "processing_batches.csv"
)

// CSVSource reads the three origin exports from a directory. A missing file
// means that origin contributed no records this cycle; only a directory with
// none of the three files is an error.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a CSV source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) Name() string { return "csv:" + s.Dir }

// Fetch reads all present export files. Column order is not assumed; each
// file's header row is mapped by name.
func (s *CSVSource) Fetch(ctx context.Context) (market.RawBatch, error) {
	var batch market.RawBatch
	found := 0

	rows, err := s.readFile(ctx, OrdersFile)
	if err != nil {
		return market.RawBatch{}, err
	}
	if rows != nil {
		found++
		batch.Orders, err = parseOrders(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("%s: %w", OrdersFile, err)
		}
	}

	rows, err = s.readFile(ctx, LotsFile)
	if err != nil {
		return market.RawBatch{}, err
	}
	if rows != nil {
		found++
		batch.Lots, err = parseLots(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("%s: %w", LotsFile, err)
		}
	}

	rows, err = s.readFile(ctx, BatchesFile)
	if err != nil {
		return market.RawBatch{}, err
	}
	if rows != nil {
		found++
		batch.Batches, err = parseBatches(rows)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("%s: %w", BatchesFile, err)
		}
	}

	if found == 0 {
		return market.RawBatch{}, fmt.Errorf("no export files in %s", s.Dir)
	}
	return batch, nil
}

// readFile returns the raw rows of one export, or nil when the file does not
// exist.
func (s *CSVSource) readFile(ctx context.Context, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	// Exports occasionally carry ragged trailing columns.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}

// headerIndex maps normalized column names to their positions. Header
// variants across export versions are folded by lowercasing and stripping
// spaces and underscores.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

// field returns the named column of a row, trying each alias in order.
func field(row []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func parseOrders(rows [][]string) ([]market.MarketplaceOrder, error) {
	if len(rows) < 1 {
		return nil, nil
	}
	idx := headerIndex(rows[0])
	if _, ok := idx["orderid"]; !ok {
		return nil, fmt.Errorf("missing order_id column")
	}

	orders := make([]market.MarketplaceOrder, 0, len(rows)-1)
	for _, row := range rows[1:] {
		orders = append(orders, market.MarketplaceOrder{
			OrderID:   field(row, idx, "orderid"),
			OrderDate: field(row, idx, "orderdate", "date"),
			Crop:      field(row, idx, "crop", "cropname"),
			State:     field(row, idx, "state"),
			Qty:       field(row, idx, "qty", "quantity"),
			UnitPrice: field(row, idx, "unitprice", "price"),
			BuyerRole: field(row, idx, "buyerrole", "buyer"),
			Status:    field(row, idx, "status"),
		})
	}
	return orders, nil
}

func parseLots(rows [][]string) ([]market.LotSale, error) {
	if len(rows) < 1 {
		return nil, nil
	}
	idx := headerIndex(rows[0])
	if _, ok := idx["lotid"]; !ok {
		return nil, fmt.Errorf("missing lot_id column")
	}

	lots := make([]market.LotSale, 0, len(rows)-1)
	for _, row := range rows[1:] {
		lots = append(lots, market.LotSale{
			LotID:            field(row, idx, "lotid"),
			SoldAt:           field(row, idx, "soldat", "saledate"),
			CropType:         field(row, idx, "croptype", "crop"),
			Location:         field(row, idx, "location", "state"),
			QuantityQuintals: field(row, idx, "quantityquintals", "quantity"),
			SalePrice:        field(row, idx, "saleprice", "price"),
			BuyerType:        field(row, idx, "buyertype", "buyer"),
			DeliveryStatus:   field(row, idx, "deliverystatus", "status"),
		})
	}
	return lots, nil
}

func parseBatches(rows [][]string) ([]market.ProcessingBatch, error) {
	if len(rows) < 1 {
		return nil, nil
	}
	idx := headerIndex(rows[0])
	if _, ok := idx["batchid"]; !ok {
		return nil, fmt.Errorf("missing batch_id column")
	}

	batches := make([]market.ProcessingBatch, 0, len(rows)-1)
	for _, row := range rows[1:] {
		batches = append(batches, market.ProcessingBatch{
			BatchID:          field(row, idx, "batchid"),
			ProcuredOn:       field(row, idx, "procuredon", "procurementdate"),
			Crop:             field(row, idx, "crop", "croptype"),
			SourceState:      field(row, idx, "sourcestate", "state"),
			InputQuantity:    field(row, idx, "inputquantity", "quantity"),
			ProcurementPrice: field(row, idx, "procurementprice", "price"),
			FPOSourced:       parseBool(field(row, idx, "fposourced", "fromfpo")),
		})
	}
	return batches, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
