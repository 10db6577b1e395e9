package market

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// trailingWindow is the number of recent actual observations the trend
// classification compares the forecast mean against.
const trailingWindow = 7

// z95 is the two-sided 95% normal quantile used for confidence intervals.
const z95 = 1.959963984540054

// ForecastQuantity forecasts daily traded quantity for the requested horizon.
// The series must carry at least MinDailyObservations points.
func ForecastQuantity(series *DailySeries, horizon int) (*ForecastResult, error) {
	return forecastSeries(series, series.Quantities(), horizon, quantityOrder, MinDailyObservations)
}

// ForecastPrice forecasts the daily average price for the requested horizon.
func ForecastPrice(series *DailySeries, horizon int) (*ForecastResult, error) {
	return forecastSeries(series, series.Prices(), horizon, priceOrder, MinDailyObservations)
}

func forecastSeries(series *DailySeries, values []float64, horizon int, order arimaOrder, minObs int) (*ForecastResult, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	if series.Insufficient() || len(values) < minObs {
		return nil, &InsufficientDataError{Needed: minObs, Got: len(values)}
	}
	return runForecast(values, series.End(), horizon, order), nil
}

// runForecast fits the model and assembles the result. Degenerate series
// (constant or fewer than 3 usable points) and any numerical fit failure
// silently route to the mean fallback; the only trace is the UsedFallback
// diagnostic flag.
func runForecast(values []float64, lastDate time.Time, horizon int, order arimaOrder) *ForecastResult {
	var (
		model    TimeSeriesModel
		fallback bool
	)

	if degenerate(values) {
		model, fallback = &meanModel{}, true
	} else {
		model = newARIMA(order)
		if err := model.Fit(values); err != nil {
			model, fallback = &meanModel{}, true
		}
	}
	if fallback {
		// meanModel.Fit never fails.
		_ = model.Fit(values)
	}

	points, stderrs := model.Forecast(horizon)

	res := &ForecastResult{
		Points:       make([]ForecastPoint, horizon),
		UsedFallback: fallback,
	}

	sum := 0.0
	for i := 0; i < horizon; i++ {
		v := clampNonNegative(points[i])
		margin := z95 * stderrs[i]
		res.Points[i] = ForecastPoint{
			Date:  lastDate.AddDate(0, 0, i+1),
			Value: v,
			Lower: clampNonNegative(v - margin),
			Upper: clampNonNegative(v + margin),
		}
		sum += v
	}
	res.Total = sum
	res.Mean = sum / float64(horizon)

	actual := trailingMean(values, trailingWindow)
	res.Trend, res.ChangePercent = classifyTrend(res.Mean, actual)
	return res
}

// classifyTrend compares the forecast mean to the trailing actual mean using
// the fixed +/-5% band. Values exactly on a band edge are stable.
func classifyTrend(forecast, actual float64) (string, float64) {
	if actual <= 0 {
		if forecast > 0 {
			return TrendIncreasing, 100
		}
		return TrendStable, 0
	}
	change := (forecast - actual) / actual * 100
	switch {
	case forecast > actual*(1+trendBand):
		return TrendIncreasing, change
	case forecast < actual*(1-trendBand):
		return TrendDecreasing, change
	default:
		return TrendStable, change
	}
}

// PriceTrendLabel maps a trend label onto the bullish/bearish vocabulary the
// role reports use for price series.
func PriceTrendLabel(trend string) string {
	switch trend {
	case TrendIncreasing:
		return TrendBullish
	case TrendDecreasing:
		return TrendBearish
	default:
		return TrendStable
	}
}

// degenerate reports whether a series cannot support model fitting: fewer
// than 3 usable points or zero variance.
func degenerate(values []float64) bool {
	if len(values) < 3 {
		return true
	}
	return stat.Variance(values, nil) == 0
}

func trailingMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	return stat.Mean(values[len(values)-window:], nil)
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
