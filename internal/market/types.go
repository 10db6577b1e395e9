package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Season is the cropping season a transaction falls into, derived from its date.
type Season string

const (
	SeasonKharif  Season = "kharif"
	SeasonRabi    Season = "rabi"
	SeasonUnknown Season = "unknown"
)

// SeasonOf derives the cropping season from a calendar date.
// Months October through March are rabi, April through September kharif.
func SeasonOf(date time.Time) Season {
	if date.IsZero() {
		return SeasonUnknown
	}
	switch m := date.Month(); {
	case m >= time.April && m <= time.September:
		return SeasonKharif
	default:
		return SeasonRabi
	}
}

// OrderStatus is the fulfilment state of a trade.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusCompleted  OrderStatus = "completed"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is derived from OrderStatus via a fixed mapping.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentStatusFor maps an order status to its payment status.
// Unrecognized statuses map to pending.
func PaymentStatusFor(status OrderStatus) PaymentStatus {
	switch status {
	case StatusDelivered, StatusCompleted:
		return PaymentPaid
	case StatusShipped:
		return PaymentPartial
	case StatusCancelled:
		return PaymentRefunded
	default:
		return PaymentPending
	}
}

// Known buyer types. Raw records may carry other values; they are lowercased
// but otherwise passed through.
const (
	BuyerFarmer    = "farmer"
	BuyerFPO       = "fpo"
	BuyerProcessor = "processor"
	BuyerRetailer  = "retailer"
	BuyerTrader    = "trader"
	BuyerExporter  = "exporter"
)

// Transaction is the canonical, normalized representation of one trade.
// Values are never mutated after normalization; derived series are built
// as new objects.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	CropType      string          `json:"crop_type"`
	State         string          `json:"state"`
	Season        Season          `json:"season"`
	Quantity      decimal.Decimal `json:"quantity"`       // quintals
	PricePerUnit  decimal.Decimal `json:"price_per_unit"` // currency per quintal
	TotalValue    decimal.Decimal `json:"total_value"`
	BuyerType     string          `json:"buyer_type"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// valueTolerance is the rounding tolerance for the TotalValue invariant.
var valueTolerance = decimal.NewFromFloat(0.01)

// ValueConsistent reports whether TotalValue equals Quantity * PricePerUnit
// within rounding tolerance.
func (t Transaction) ValueConsistent() bool {
	expected := t.Quantity.Mul(t.PricePerUnit)
	return t.TotalValue.Sub(expected).Abs().LessThanOrEqual(valueTolerance)
}

// GroupKey selects the dimension a daily series is aggregated over.
type GroupKey string

const (
	GroupNone  GroupKey = ""
	GroupCrop  GroupKey = "crop_type"
	GroupState GroupKey = "state"
	GroupBuyer GroupKey = "buyer_type"
)

// DailyPoint is one calendar day of aggregated trading activity.
type DailyPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Value    float64   `json:"value"`
	AvgPrice float64   `json:"avg_price"`
	Count    int       `json:"count"`
}

// DailySeries is a regularly spaced daily series covering every day between
// the first and last observed transaction date, with no gaps.
type DailySeries struct {
	Key    string       `json:"key,omitempty"` // group value, empty for the global series
	Points []DailyPoint `json:"points"`

	observedDates int
}

// Insufficient reports whether the series has too few distinct observed dates
// to be forecast. Callers must check this before invoking the forecaster.
func (s *DailySeries) Insufficient() bool {
	return s == nil || s.observedDates < 2
}

// Len returns the number of calendar days in the series.
func (s *DailySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Quantities returns the daily quantity values in date order.
func (s *DailySeries) Quantities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// Prices returns the daily average price values in date order.
func (s *DailySeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.AvgPrice
	}
	return out
}

// Start returns the first date of the series, or the zero time when empty.
func (s *DailySeries) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Points[0].Date
}

// End returns the last date of the series, or the zero time when empty.
func (s *DailySeries) End() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// Trend labels for forecast results.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Price trend labels used in role reports. They mirror the quantity trend
// labels one-to-one.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
)

// ForecastPoint is a single forecast step with its 95% interval.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// ForecastResult is the output of one forecast call. It is created fresh per
// call and never cached or mutated.
type ForecastResult struct {
	Points        []ForecastPoint `json:"points"`
	Mean          float64         `json:"mean"`
	Total         float64         `json:"total"`
	Trend         string          `json:"trend"`
	ChangePercent float64         `json:"change_percent"`

	// UsedFallback records that the mean-repeat fallback produced this result
	// instead of a fitted model. Diagnostic only; not part of the report
	// contract.
	UsedFallback bool `json:"-"`
}

// Values returns the point estimates in horizon order.
func (r *ForecastResult) Values() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Value
	}
	return out
}

// trendBand is the fixed +/-5% threshold shared by trend classification and
// the farmer hold/sell decision. It is a design constant, not tunable.
const trendBand = 0.05

// Minimum observation thresholds for forecasting.
const (
	// MinDailyObservations is required for the general-purpose daily forecast.
	MinDailyObservations = 30
	// MinCropTransactions is the relaxed threshold for per-crop forecasts,
	// which work from sparser data.
	MinCropTransactions = 20
)

// Fixed ARIMA orders. Quantity series carry more day-to-day structure than
// price series, hence the longer AR lag.
var (
	quantityOrder = arimaOrder{p: 5, d: 1, q: 2}
	priceOrder    = arimaOrder{p: 3, d: 1, q: 2}
)
