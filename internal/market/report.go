package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Role scopes a report to one marketplace participant type.
type Role string

const (
	RoleNone      Role = ""
	RoleFarmer    Role = "farmer"
	RoleFPO       Role = "fpo"
	RoleProcessor Role = "processor"
	RoleRetailer  Role = "retailer"
)

// ParseRole validates a role name. The empty string is the un-scoped report.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleNone, RoleFarmer, RoleFPO, RoleProcessor, RoleRetailer:
		return Role(s), nil
	default:
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Forecast horizons per role. The table is fixed; it is not configurable at
// call time.
const (
	farmerHorizonDays        = 30
	fpoHorizonDays           = 60
	processorSupplyHorizon   = 90
	processorPriceHorizon    = 60
	retailerHorizonDays      = 30
	topCropsForFarmer        = 3
	topSegmentsDefault       = 10
	bestPriceCropsLimit      = 5
	fpoProcurementMultiplier = 1.15
	fpoBufferMultiplier      = 0.25
	processorQtyMultiplier   = 1.2
)

// Recommendation actions.
const (
	ActionHold     = "HOLD"
	ActionSellNow  = "SELL_NOW"
	ActionFlexible = "FLEXIBLE"
	ActionMonitor  = "MONITOR"

	StrategyAggressive = "AGGRESSIVE_PROCUREMENT"
	StrategyGradual    = "GRADUAL_PROCUREMENT"
	StrategySteady     = "STEADY_PROCUREMENT"
)

const insufficientDataReason = "Insufficient data"

// DateRange is the observed transaction date span.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// MonthlySummary is one market-summary row: a (year, month, crop) cell with
// demand, fulfilled supply and average price.
type MonthlySummary struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	CropType string  `json:"crop_type"`
	Demand   float64 `json:"demand"`
	Supply   float64 `json:"supply"`
	AvgPrice float64 `json:"avg_price"`
}

// MarketShortage flags a month/crop cell where fulfilled supply lags demand.
type MarketShortage struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	CropType        string  `json:"crop_type"`
	Demand          float64 `json:"demand"`
	Supply          float64 `json:"supply"`
	ShortagePercent float64 `json:"shortage_percent"`
}

// CropPrice is a crop with its average realized price.
type CropPrice struct {
	Crop     string  `json:"crop"`
	AvgPrice float64 `json:"avg_price"`
}

// FarmerInsights is the un-scoped advisory block present on every report.
type FarmerInsights struct {
	MarketShortages []MarketShortage `json:"market_shortages"`
	BestPriceCrops  []CropPrice      `json:"best_price_crops"`
}

// ForecastSection wraps a forecast sub-result so a failed forecast degrades
// to an error string inside the report instead of aborting it.
type ForecastSection struct {
	Forecast *ForecastResult `json:"forecast,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func forecastSection(f *ForecastResult, err error) ForecastSection {
	if err != nil {
		return ForecastSection{Error: err.Error()}
	}
	return ForecastSection{Forecast: f}
}

// Recommendation is a derived categorical action with its rationale.
type Recommendation struct {
	Action             string  `json:"action"`
	Reason             string  `json:"reason,omitempty"`
	PriceChangePercent float64 `json:"price_change_percent,omitempty"`
}

// ProcurementPlan is the FPO aggregation advice.
type ProcurementPlan struct {
	RecommendedQuantity float64 `json:"recommended_quantity"` // demand * 1.15
	BufferStock         float64 `json:"buffer_stock"`         // demand * 0.25
}

// ProcurementStrategy is the processor sourcing advice.
type ProcurementStrategy struct {
	Strategy            string  `json:"strategy"`
	Timing              string  `json:"timing,omitempty"`
	RecommendedQuantity float64 `json:"recommended_quantity"`
	Reason              string  `json:"reason,omitempty"`
}

// FarmerInsight is the role-scoped section for farmers.
type FarmerInsight struct {
	PriceForecast ForecastSection  `json:"price_forecast"`
	Seasonal      SeasonalAnalysis `json:"seasonal"`
	TopCrops      CropAnalysis     `json:"top_crops"`
	BuyerBehavior BuyerAnalysis    `json:"buyer_behavior"`
	Action        Recommendation   `json:"action"`
}

// FPOInsight is the role-scoped section for farmer producer organisations.
type FPOInsight struct {
	DemandForecast ForecastSection  `json:"demand_forecast"`
	PriceForecast  ForecastSection  `json:"price_forecast"`
	Crops          CropAnalysis     `json:"crops"`
	States         StateAnalysis    `json:"states"`
	BuyerBehavior  BuyerAnalysis    `json:"buyer_behavior"`
	Procurement    *ProcurementPlan `json:"procurement,omitempty"`
	Degraded       *Recommendation  `json:"degraded,omitempty"`
}

// ProcessorInsight is the role-scoped section for processors.
type ProcessorInsight struct {
	SupplyForecast ForecastSection     `json:"supply_forecast"`
	PriceForecast  ForecastSection     `json:"price_forecast"`
	StateSupply    StateAnalysis       `json:"state_supply"`
	CropSupply     CropAnalysis        `json:"crop_availability"`
	Seasonal       SeasonalAnalysis    `json:"seasonal_supply"`
	Strategy       ProcurementStrategy `json:"strategy"`
}

// RetailerInsight is the role-scoped section for retailers.
type RetailerInsight struct {
	AvailabilityForecast ForecastSection  `json:"availability_forecast"`
	PriceForecast        ForecastSection  `json:"price_forecast"`
	Crops                CropAnalysis     `json:"crops"`
	Seasonal             SeasonalAnalysis `json:"seasonal"`
}

// MarketReport is the top-level report object. It is always well formed: no
// analysis failure propagates out of BuildReport as an error; failed
// sub-results degrade in place.
type MarketReport struct {
	Role              Role             `json:"role,omitempty"`
	GeneratedAt       time.Time        `json:"generated_at"`
	DataAvailable     bool             `json:"data_available"`
	TotalTransactions int              `json:"total_transactions"`
	DroppedRecords    int              `json:"dropped_records,omitempty"`
	DateRange         DateRange        `json:"date_range"`
	MarketSummary     []MonthlySummary `json:"market_summary"`
	FarmerInsights    FarmerInsights   `json:"farmer_insights"`
	RoleInsights      any              `json:"role_insights"`
	CropForecasts     []CropForecast   `json:"crop_forecasts,omitempty"`
}

// ReportOptions tunes the non-contractual parts of report building.
type ReportOptions struct {
	// TopN limits ranked segment lists. Zero means the default of 10.
	TopN int
	// CropFilter restricts per-crop forecasting to one crop. Empty forecasts
	// the top crops by volume.
	CropFilter string
}

// analysisSet collects the analyzer fan-out results before role assembly.
type analysisSet struct {
	seasonal SeasonalAnalysis
	crops    CropAnalysis
	states   StateAnalysis
	buyers   BuyerAnalysis

	quantityForecast *ForecastResult
	quantityErr      error
	priceForecast    *ForecastResult
	priceErr         error

	cropForecasts []CropForecast
}

// BuildReport synthesizes a role-scoped market report from an immutable
// transaction snapshot. The analyzers and per-crop forecasts are pure
// functions over their input slice, so they fan out concurrently; the caller
// bounds the whole build with its context deadline, and on expiry the request
// fails rather than returning a silently truncated report.
func BuildReport(ctx context.Context, role Role, txns []Transaction, opts ReportOptions) (*MarketReport, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if opts.TopN <= 0 {
		opts.TopN = topSegmentsDefault
	}

	report := &MarketReport{
		Role:              role,
		GeneratedAt:       time.Now().UTC(),
		TotalTransactions: len(txns),
		MarketSummary:     []MonthlySummary{},
		FarmerInsights: FarmerInsights{
			MarketShortages: []MarketShortage{},
			BestPriceCrops:  []CropPrice{},
		},
	}

	if len(txns) == 0 {
		return report, nil
	}
	report.DataAvailable = true

	start, end := dateSpan(txns)
	report.DateRange = DateRange{Start: &start, End: &end}

	series := BuildDailySeries(txns)
	qtyHorizon, priceHorizon := horizonsFor(role)

	set := &analysisSet{}
	g, ctx := errgroup.WithContext(ctx)

	run := func(f func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f()
			return nil
		})
	}

	run(func() { set.seasonal = AnalyzeSeasons(txns) })
	run(func() { set.crops = AnalyzeCrops(txns, opts.TopN) })
	run(func() { set.states = AnalyzeStates(txns, opts.TopN) })
	run(func() { set.buyers = AnalyzeBuyers(txns) })
	run(func() { report.MarketSummary = buildMonthlySummary(txns) })
	if qtyHorizon > 0 {
		run(func() { set.quantityForecast, set.quantityErr = ForecastQuantity(series, qtyHorizon) })
	}
	if priceHorizon > 0 {
		run(func() { set.priceForecast, set.priceErr = ForecastPrice(series, priceHorizon) })
	}
	run(func() { set.cropForecasts = buildCropForecasts(txns, opts, priceHorizonOrDefault(priceHorizon)) })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("report build cancelled: %w", err)
	}

	report.FarmerInsights = buildFarmerInsights(report.MarketSummary, txns)
	report.CropForecasts = set.cropForecasts
	report.RoleInsights = assembleRoleInsights(role, set)
	return report, nil
}

func priceHorizonOrDefault(h int) int {
	if h > 0 {
		return h
	}
	return retailerHorizonDays
}

func horizonsFor(role Role) (quantity, price int) {
	switch role {
	case RoleFarmer:
		return 0, farmerHorizonDays
	case RoleFPO:
		return fpoHorizonDays, fpoHorizonDays
	case RoleProcessor:
		return processorSupplyHorizon, processorPriceHorizon
	case RoleRetailer:
		return retailerHorizonDays, retailerHorizonDays
	default:
		return 0, 0
	}
}

func assembleRoleInsights(role Role, set *analysisSet) any {
	switch role {
	case RoleFarmer:
		return buildFarmerInsight(set)
	case RoleFPO:
		return buildFPOInsight(set)
	case RoleProcessor:
		return buildProcessorInsight(set)
	case RoleRetailer:
		return &RetailerInsight{
			AvailabilityForecast: forecastSection(set.quantityForecast, set.quantityErr),
			PriceForecast:        forecastSection(set.priceForecast, set.priceErr),
			Crops:                set.crops,
			Seasonal:             set.seasonal,
		}
	default:
		return nil
	}
}

func buildFarmerInsight(set *analysisSet) *FarmerInsight {
	ins := &FarmerInsight{
		PriceForecast: forecastSection(set.priceForecast, set.priceErr),
		Seasonal:      set.seasonal,
		BuyerBehavior: set.buyers,
	}
	ins.TopCrops = set.crops
	if len(ins.TopCrops.TopCrops) > topCropsForFarmer {
		ins.TopCrops.TopCrops = ins.TopCrops.TopCrops[:topCropsForFarmer]
	}

	if set.priceErr != nil || set.priceForecast == nil {
		ins.Action = Recommendation{Action: ActionMonitor, Reason: insufficientDataReason}
		return ins
	}

	f := set.priceForecast
	change := f.ChangePercent
	switch {
	// The same +/-5% band as trend classification, reused deliberately so
	// the action and the trend label can never disagree.
	case PriceTrendLabel(f.Trend) == TrendBullish && change > trendBand*100:
		ins.Action = Recommendation{
			Action:             ActionHold,
			Reason:             fmt.Sprintf("Prices trending up %.1f%%; holding stock should realize better rates", change),
			PriceChangePercent: change,
		}
	case PriceTrendLabel(f.Trend) == TrendBearish && change < -trendBand*100:
		ins.Action = Recommendation{
			Action:             ActionSellNow,
			Reason:             fmt.Sprintf("Prices trending down %.1f%%; selling now limits the downside", change),
			PriceChangePercent: change,
		}
	default:
		ins.Action = Recommendation{
			Action:             ActionFlexible,
			Reason:             "Prices stable; sell on need or local terms",
			PriceChangePercent: change,
		}
	}
	return ins
}

func buildFPOInsight(set *analysisSet) *FPOInsight {
	ins := &FPOInsight{
		DemandForecast: forecastSection(set.quantityForecast, set.quantityErr),
		PriceForecast:  forecastSection(set.priceForecast, set.priceErr),
		Crops:          set.crops,
		States:         set.states,
		BuyerBehavior:  set.buyers,
	}
	if set.quantityErr != nil || set.quantityForecast == nil {
		ins.Degraded = &Recommendation{Action: ActionMonitor, Reason: insufficientDataReason}
		return ins
	}
	total := set.quantityForecast.Total
	ins.Procurement = &ProcurementPlan{
		RecommendedQuantity: total * fpoProcurementMultiplier,
		BufferStock:         total * fpoBufferMultiplier,
	}
	return ins
}

func buildProcessorInsight(set *analysisSet) *ProcessorInsight {
	ins := &ProcessorInsight{
		SupplyForecast: forecastSection(set.quantityForecast, set.quantityErr),
		PriceForecast:  forecastSection(set.priceForecast, set.priceErr),
		StateSupply:    set.states,
		CropSupply:     set.crops,
		Seasonal:       set.seasonal,
	}

	if set.priceErr != nil || set.priceForecast == nil || set.quantityErr != nil || set.quantityForecast == nil {
		ins.Strategy = ProcurementStrategy{Strategy: ActionMonitor, Reason: insufficientDataReason}
		return ins
	}

	qty := set.quantityForecast.Total * processorQtyMultiplier
	switch PriceTrendLabel(set.priceForecast.Trend) {
	case TrendBearish:
		ins.Strategy = ProcurementStrategy{
			Strategy:            StrategyAggressive,
			Timing:              "immediate, next 2 weeks",
			RecommendedQuantity: qty,
			Reason:              "Falling prices favor procuring before the market turns",
		}
	case TrendBullish:
		ins.Strategy = ProcurementStrategy{
			Strategy:            StrategyGradual,
			Timing:              "spread over 4-6 weeks",
			RecommendedQuantity: qty,
			Reason:              "Rising prices; stagger purchases to average the cost in",
		}
	default:
		ins.Strategy = ProcurementStrategy{
			Strategy:            StrategySteady,
			Timing:              "weekly or bi-weekly",
			RecommendedQuantity: qty,
			Reason:              "Stable prices; procure on the regular cycle",
		}
	}
	return ins
}

// buildCropForecasts forecasts either the one requested crop or the top crops
// by volume. Individual failures stay inside each CropForecast entry.
func buildCropForecasts(txns []Transaction, opts ReportOptions, horizon int) []CropForecast {
	var crops []string
	if opts.CropFilter != "" {
		crops = []string{opts.CropFilter}
	} else {
		ranked := AnalyzeCrops(txns, topCropsForFarmer)
		for _, c := range ranked.TopCrops {
			crops = append(crops, c.Crop)
		}
	}

	out := make([]CropForecast, 0, len(crops))
	for _, crop := range crops {
		cf, err := ForecastCrop(txns, crop, horizon)
		if err != nil {
			// Only contract violations reach here; record and continue.
			cf = CropForecast{Crop: crop, Error: err.Error()}
		}
		out = append(out, cf)
	}
	return out
}

type monthKey struct {
	year  int
	month int
	crop  string
}

// buildMonthlySummary aggregates demand, fulfilled supply and average price
// per (year, month, crop). Demand counts every transaction; supply counts
// only those already paid out (completed or delivered).
func buildMonthlySummary(txns []Transaction) []MonthlySummary {
	type acc struct {
		demand, supply, priceSum float64
		count                    int
	}
	cells := map[monthKey]*acc{}

	for _, t := range txns {
		k := monthKey{year: t.Date.Year(), month: int(t.Date.Month()), crop: t.CropType}
		a, ok := cells[k]
		if !ok {
			a = &acc{}
			cells[k] = a
		}
		qty, _ := t.Quantity.Float64()
		price, _ := t.PricePerUnit.Float64()
		a.demand += qty
		if t.PaymentStatus == PaymentPaid {
			a.supply += qty
		}
		a.priceSum += price
		a.count++
	}

	out := make([]MonthlySummary, 0, len(cells))
	for k, a := range cells {
		out = append(out, MonthlySummary{
			Year:     k.year,
			Month:    k.month,
			CropType: k.crop,
			Demand:   a.demand,
			Supply:   a.supply,
			AvgPrice: a.priceSum / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.CropType < b.CropType
	})
	return out
}

// buildFarmerInsights derives the un-scoped advisory block: months where
// fulfilled supply lagged demand, and the crops that realized the best
// average prices.
func buildFarmerInsights(summary []MonthlySummary, txns []Transaction) FarmerInsights {
	ins := FarmerInsights{
		MarketShortages: []MarketShortage{},
		BestPriceCrops:  []CropPrice{},
	}

	for _, row := range summary {
		if row.Demand <= 0 || row.Supply >= row.Demand {
			continue
		}
		ins.MarketShortages = append(ins.MarketShortages, MarketShortage{
			Year:            row.Year,
			Month:           row.Month,
			CropType:        row.CropType,
			Demand:          row.Demand,
			Supply:          row.Supply,
			ShortagePercent: (row.Demand - row.Supply) / row.Demand * 100,
		})
	}

	crops := AnalyzeCrops(txns, 0)
	ranked := append([]CropStats(nil), crops.TopCrops...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgPrice != ranked[j].AvgPrice {
			return ranked[i].AvgPrice > ranked[j].AvgPrice
		}
		return ranked[i].Crop < ranked[j].Crop
	})
	for i, c := range ranked {
		if i >= bestPriceCropsLimit {
			break
		}
		ins.BestPriceCrops = append(ins.BestPriceCrops, CropPrice{Crop: c.Crop, AvgPrice: c.AvgPrice})
	}
	return ins
}

func dateSpan(txns []Transaction) (start, end time.Time) {
	for _, t := range txns {
		d := dayKey(t.Date)
		if start.IsZero() || d.Before(start) {
			start = d
		}
		if end.IsZero() || d.After(end) {
			end = d
		}
	}
	return start, end
}
