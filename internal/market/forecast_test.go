package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastQuantityConstantSeries(t *testing.T) {
	// Constant volume: the fallback repeats the mean with zero-width intervals.
	txns := dailyTxns("soybean", day(2024, time.June, 1), 40, func(int) (float64, float64) {
		return 100, 4500
	})
	series := BuildDailySeries(txns)

	res, err := ForecastQuantity(series, 30)
	require.NoError(t, err)
	require.Len(t, res.Points, 30)

	assert.True(t, res.UsedFallback)
	assert.Equal(t, TrendStable, res.Trend)
	assert.Zero(t, res.ChangePercent)
	assert.InDelta(t, 100.0, res.Mean, 1e-9)
	assert.InDelta(t, 3000.0, res.Total, 1e-9)

	for _, p := range res.Points {
		assert.InDelta(t, 100.0, p.Value, 1e-9)
		assert.Equal(t, p.Value, p.Lower)
		assert.Equal(t, p.Value, p.Upper)
	}
}

func TestForecastPriceRisingSeries(t *testing.T) {
	// Strictly rising price 100 -> 200 over 40 days must read as increasing
	// with a clearly positive change, not fall back to the overall mean.
	step := 100.0 / 39.0
	txns := dailyTxns("wheat", day(2024, time.June, 1), 40, func(i int) (float64, float64) {
		return 50, 100 + step*float64(i)
	})
	series := BuildDailySeries(txns)

	res, err := ForecastPrice(series, 30)
	require.NoError(t, err)

	assert.False(t, res.UsedFallback)
	assert.Equal(t, TrendIncreasing, res.Trend)
	assert.Equal(t, TrendBullish, PriceTrendLabel(res.Trend))
	assert.Greater(t, res.ChangePercent, 2.0)
	assert.Greater(t, res.Points[0].Value, 200.0)
}

func TestForecastDatesFollowSeries(t *testing.T) {
	start := day(2024, time.June, 1)
	txns := dailyTxns("wheat", start, 40, func(i int) (float64, float64) {
		return 50 + float64(i%3), 2000
	})
	series := BuildDailySeries(txns)

	res, err := ForecastQuantity(series, 5)
	require.NoError(t, err)

	want := series.End().AddDate(0, 0, 1)
	for _, p := range res.Points {
		assert.Equal(t, want, p.Date)
		want = want.AddDate(0, 0, 1)
	}
}

func TestForecastClampsNegativeValues(t *testing.T) {
	// A steep decline extrapolates below zero; quantities and interval bounds
	// must clamp at zero instead.
	txns := dailyTxns("cotton", day(2024, time.June, 1), 40, func(i int) (float64, float64) {
		return 300 - 7.5*float64(i), 5000
	})
	series := BuildDailySeries(txns)

	res, err := ForecastQuantity(series, 10)
	require.NoError(t, err)

	assert.Equal(t, TrendDecreasing, res.Trend)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
	}
	assert.Zero(t, res.Points[len(res.Points)-1].Value)
}

func TestForecastInsufficientData(t *testing.T) {
	txns := dailyTxns("wheat", day(2024, time.June, 1), 10, func(int) (float64, float64) {
		return 100, 2000
	})
	series := BuildDailySeries(txns)

	_, err := ForecastQuantity(series, 30)
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))

	var ins *InsufficientDataError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, MinDailyObservations, ins.Needed)
	assert.Equal(t, 10, ins.Got)
}

func TestForecastInvalidHorizon(t *testing.T) {
	txns := dailyTxns("wheat", day(2024, time.June, 1), 40, func(int) (float64, float64) {
		return 100, 2000
	})
	series := BuildDailySeries(txns)

	_, err := ForecastQuantity(series, 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
	_, err = ForecastPrice(series, -5)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestClassifyTrendBandEdges(t *testing.T) {
	tests := []struct {
		name     string
		forecast float64
		actual   float64
		want     string
	}{
		{"exactly upper edge", 105, 100, TrendStable},
		{"just above band", 105.1, 100, TrendIncreasing},
		{"exactly lower edge", 95, 100, TrendStable},
		{"just below band", 94.9, 100, TrendDecreasing},
		{"inside band", 101, 100, TrendStable},
		{"zero actual positive forecast", 10, 0, TrendIncreasing},
		{"zero actual zero forecast", 0, 0, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, change := classifyTrend(tt.forecast, tt.actual)
			assert.Equal(t, tt.want, got)
			if tt.actual > 0 {
				assert.InDelta(t, (tt.forecast-tt.actual)/tt.actual*100, change, 1e-9)
			}
		})
	}
}

func TestPriceTrendLabel(t *testing.T) {
	assert.Equal(t, TrendBullish, PriceTrendLabel(TrendIncreasing))
	assert.Equal(t, TrendBearish, PriceTrendLabel(TrendDecreasing))
	assert.Equal(t, TrendStable, PriceTrendLabel(TrendStable))
}
