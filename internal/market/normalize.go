package market

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarketplaceOrder is a raw record from the live order flow. Numeric fields
// arrive as strings because orders are ingested from CSV/Excel exports.
type MarketplaceOrder struct {
	OrderID   string `json:"order_id"`
	OrderDate string `json:"order_date"`
	Crop      string `json:"crop"`
	State     string `json:"state"`
	Qty       string `json:"qty"`
	UnitPrice string `json:"unit_price"`
	BuyerRole string `json:"buyer_role"`
	Status    string `json:"status"`
}

// LotSale is a raw record of a completed lot auction.
type LotSale struct {
	LotID            string `json:"lot_id"`
	SoldAt           string `json:"sold_at"`
	CropType         string `json:"crop_type"`
	Location         string `json:"location"`
	QuantityQuintals string `json:"quantity_quintals"`
	SalePrice        string `json:"sale_price"`
	BuyerType        string `json:"buyer_type"`
	DeliveryStatus   string `json:"delivery_status"`
}

// ProcessingBatch is a raw procurement record from a processing unit.
type ProcessingBatch struct {
	BatchID          string `json:"batch_id"`
	ProcuredOn       string `json:"procured_on"`
	Crop             string `json:"crop"`
	SourceState      string `json:"source_state"`
	InputQuantity    string `json:"input_quantity"`
	ProcurementPrice string `json:"procurement_price"`
	FPOSourced       bool   `json:"fpo_sourced"`
}

// RawBatch is the union of raw records from all origins. The same trade may
// appear in more than one origin; normalization deduplicates by id.
type RawBatch struct {
	Orders  []MarketplaceOrder
	Lots    []LotSale
	Batches []ProcessingBatch
}

// Size returns the total number of raw records across all origins.
func (b RawBatch) Size() int {
	return len(b.Orders) + len(b.Lots) + len(b.Batches)
}

// Filter narrows the normalized output. Empty fields match everything.
type Filter struct {
	Crop      string
	State     string
	BuyerType string
}

func (f Filter) matches(t Transaction) bool {
	if f.Crop != "" && t.CropType != strings.ToLower(strings.TrimSpace(f.Crop)) {
		return false
	}
	if f.State != "" && !strings.EqualFold(t.State, strings.TrimSpace(f.State)) {
		return false
	}
	if f.BuyerType != "" && t.BuyerType != strings.ToLower(strings.TrimSpace(f.BuyerType)) {
		return false
	}
	return true
}

// Result is the outcome of normalizing one raw batch.
type Result struct {
	Transactions []Transaction
	// Dropped counts raw records excluded for unparseable dates or numerics,
	// or non-positive quantity. Surfaced for diagnostics only.
	Dropped int
}

var titleCaser = cases.Title(language.English)

// Normalize maps every raw record onto the canonical Transaction schema,
// derives season and payment status, standardizes casing, deduplicates by
// transaction id keeping the first occurrence, and applies the filter.
// Malformed records are dropped and counted, never aborting the batch.
// An empty batch yields an empty result, not an error.
func Normalize(batch RawBatch, filter Filter) Result {
	res := Result{}
	seen := make(map[string]struct{}, batch.Size())

	add := func(t Transaction, err error) {
		if err != nil {
			res.Dropped++
			return
		}
		if _, dup := seen[t.TransactionID]; dup {
			return
		}
		seen[t.TransactionID] = struct{}{}
		if filter.matches(t) {
			res.Transactions = append(res.Transactions, t)
		}
	}

	for _, o := range batch.Orders {
		add(normalizeOrder(o))
	}
	for _, l := range batch.Lots {
		add(normalizeLot(l))
	}
	for _, pb := range batch.Batches {
		add(normalizeBatch(pb))
	}

	return res
}

func normalizeOrder(o MarketplaceOrder) (Transaction, error) {
	return buildTransaction(o.OrderID, o.OrderDate, o.Crop, o.State, o.Qty, o.UnitPrice, o.BuyerRole, o.Status)
}

func normalizeLot(l LotSale) (Transaction, error) {
	return buildTransaction(l.LotID, l.SoldAt, l.CropType, l.Location, l.QuantityQuintals, l.SalePrice, l.BuyerType, l.DeliveryStatus)
}

// Processing batches are procurement by a processing unit, so the buyer type
// is fixed to "processor" regardless of the FPOSourced flag. The upstream
// system used the flag to guess the buyer; that classification is pending
// product clarification and is deliberately not reproduced here.
func normalizeBatch(b ProcessingBatch) (Transaction, error) {
	return buildTransaction(b.BatchID, b.ProcuredOn, b.Crop, b.SourceState, b.InputQuantity, b.ProcurementPrice, BuyerProcessor, string(StatusCompleted))
}

func buildTransaction(id, dateStr, crop, state, qtyStr, priceStr, buyerType, status string) (Transaction, error) {
	date, err := ParseDate(strings.TrimSpace(dateStr))
	if err != nil {
		return Transaction{}, err
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(qtyStr))
	if err != nil {
		return Transaction{}, err
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		// Non-positive quantities carry no aggregation signal.
		return Transaction{}, errNonPositiveQuantity
	}

	price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
	if err != nil {
		return Transaction{}, err
	}
	if price.IsNegative() {
		return Transaction{}, errNegativePrice
	}

	st := OrderStatus(strings.ToLower(strings.TrimSpace(status)))

	return Transaction{
		TransactionID: strings.TrimSpace(id),
		Date:          date,
		CropType:      strings.ToLower(strings.TrimSpace(crop)),
		State:         titleCaser.String(strings.ToLower(strings.TrimSpace(state))),
		Season:        SeasonOf(date),
		Quantity:      qty,
		PricePerUnit:  price,
		TotalValue:    qty.Mul(price),
		BuyerType:     strings.ToLower(strings.TrimSpace(buyerType)),
		Status:        st,
		PaymentStatus: PaymentStatusFor(st),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// ParseDate parses the date formats the trade exports are known to use.
func ParseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"02/01/2006",
		"02-01-2006",
	}
	var lastErr error
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			// Timezone-naive calendar date.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
