package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySeriesContiguous(t *testing.T) {
	txns := []Transaction{
		tx("a", day(2024, time.June, 1), "wheat", "Punjab", 100, 2000, BuyerTrader, StatusCompleted),
		tx("b", day(2024, time.June, 1), "wheat", "Punjab", 50, 2100, BuyerFPO, StatusCompleted),
		tx("c", day(2024, time.June, 5), "wheat", "Punjab", 80, 2200, BuyerTrader, StatusCompleted),
	}

	s := BuildDailySeries(txns)
	require.False(t, s.Insufficient())
	require.Equal(t, 5, s.Len(), "calendar must cover every day in the span")

	// No gaps: consecutive dates exactly one day apart.
	for i := 1; i < s.Len(); i++ {
		assert.Equal(t, 24*time.Hour, s.Points[i].Date.Sub(s.Points[i-1].Date))
	}

	first := s.Points[0]
	assert.Equal(t, 150.0, first.Quantity)
	assert.Equal(t, 100*2000.0+50*2100.0, first.Value)
	assert.Equal(t, 2050.0, first.AvgPrice)
	assert.Equal(t, 2, first.Count)

	// Quiet days are zero-filled for quantity/value/count but carry the
	// forward-filled price.
	for i := 1; i <= 3; i++ {
		p := s.Points[i]
		assert.Zero(t, p.Quantity)
		assert.Zero(t, p.Value)
		assert.Zero(t, p.Count)
		assert.Equal(t, 2050.0, p.AvgPrice, "price must forward-fill, not dip to zero")
	}
	assert.Equal(t, 2200.0, s.Points[4].AvgPrice)
}

func TestBuildDailySeriesInsufficient(t *testing.T) {
	single := []Transaction{
		tx("a", day(2024, time.June, 1), "wheat", "Punjab", 100, 2000, BuyerTrader, StatusCompleted),
	}
	s := BuildDailySeries(single)
	assert.True(t, s.Insufficient())
	assert.Equal(t, 1, s.Len())

	assert.True(t, BuildDailySeries(nil).Insufficient())
}

func TestBuildDailySeriesSkipsUnusableRecords(t *testing.T) {
	bad := tx("bad", time.Time{}, "wheat", "Punjab", 100, 2000, BuyerTrader, StatusCompleted)
	txns := append(dailyTxns("wheat", day(2024, time.June, 1), 3, func(int) (float64, float64) {
		return 10, 2000
	}), bad)

	s := BuildDailySeries(txns)
	assert.Equal(t, 3, s.Len())
}

func TestBuildDailySeriesBy(t *testing.T) {
	txns := []Transaction{
		tx("a", day(2024, time.June, 1), "wheat", "Punjab", 100, 2000, BuyerTrader, StatusCompleted),
		tx("b", day(2024, time.June, 2), "wheat", "Punjab", 50, 2100, BuyerTrader, StatusCompleted),
		tx("c", day(2024, time.June, 1), "soybean", "Maharashtra", 80, 4400, BuyerFPO, StatusCompleted),
	}

	byCrop := BuildDailySeriesBy(txns, GroupCrop)
	require.Len(t, byCrop, 2)
	assert.Equal(t, 2, byCrop["wheat"].Len())
	assert.Equal(t, 1, byCrop["soybean"].Len())
	assert.True(t, byCrop["soybean"].Insufficient())

	byState := BuildDailySeriesBy(txns, GroupState)
	require.Contains(t, byState, "Punjab")
	require.Contains(t, byState, "Maharashtra")
}

func TestFillPricesLeadingGap(t *testing.T) {
	points := []DailyPoint{
		{Date: day(2024, time.June, 1)},
		{Date: day(2024, time.June, 2)},
		{Date: day(2024, time.June, 3), AvgPrice: 2000, Count: 1},
		{Date: day(2024, time.June, 4)},
	}
	fillPrices(points)

	// Leading gap backward-fills from the first observed price.
	assert.Equal(t, 2000.0, points[0].AvgPrice)
	assert.Equal(t, 2000.0, points[1].AvgPrice)
	assert.Equal(t, 2000.0, points[3].AvgPrice)
}
