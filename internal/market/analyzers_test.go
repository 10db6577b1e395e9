package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSeasons(t *testing.T) {
	txns := []Transaction{
		// Kharif: 300 quintals at avg price 4000.
		tx("k1", day(2024, time.June, 10), "soybean", "Maharashtra", 200, 3800, BuyerTrader, StatusCompleted),
		tx("k2", day(2024, time.July, 5), "soybean", "Maharashtra", 100, 4200, BuyerFPO, StatusCompleted),
		// Rabi: 150 quintals at avg price 5000.
		tx("r1", day(2024, time.December, 2), "wheat", "Punjab", 150, 5000, BuyerTrader, StatusCompleted),
	}

	res := AnalyzeSeasons(txns)
	require.True(t, res.DataAvailable)
	require.Len(t, res.Seasons, 2)

	assert.Equal(t, SeasonKharif, res.PeakSeason)
	assert.Equal(t, SeasonRabi, res.PricePremiumSeason)
	assert.InDelta(t, 25.0, res.PricePremiumPercent, 1e-9)

	kharif := res.Seasons[0]
	require.Equal(t, SeasonKharif, kharif.Season)
	assert.Equal(t, 300.0, kharif.Quantity)
	assert.InDelta(t, 4000.0, kharif.AvgPrice, 1e-9)
	assert.Equal(t, 2, kharif.Transactions)
}

func TestAnalyzeSeasonsSingleSeason(t *testing.T) {
	txns := []Transaction{
		tx("k1", day(2024, time.June, 10), "soybean", "Maharashtra", 200, 3800, BuyerTrader, StatusCompleted),
	}
	res := AnalyzeSeasons(txns)
	require.True(t, res.DataAvailable)
	assert.Equal(t, SeasonKharif, res.PeakSeason)
	// No second season to compare against, so no premium.
	assert.Empty(t, res.PricePremiumSeason)
	assert.Zero(t, res.PricePremiumPercent)
}

func TestAnalyzeSeasonsEmpty(t *testing.T) {
	res := AnalyzeSeasons(nil)
	assert.False(t, res.DataAvailable)
	assert.Empty(t, res.Seasons)
}

func TestAnalyzeCrops(t *testing.T) {
	txns := []Transaction{
		tx("a", day(2024, time.June, 1), "soybean", "Maharashtra", 500, 4000, BuyerTrader, StatusCompleted),
		tx("b", day(2024, time.June, 2), "wheat", "Punjab", 300, 2200, BuyerTrader, StatusCompleted),
		tx("c", day(2024, time.June, 3), "cotton", "Gujarat", 150, 7000, BuyerProcessor, StatusCompleted),
		tx("d", day(2024, time.June, 4), "maize", "Bihar", 50, 1800, BuyerTrader, StatusCompleted),
	}

	res := AnalyzeCrops(txns, 2)
	require.True(t, res.DataAvailable)
	assert.Equal(t, 4, res.TotalCrops)
	require.Len(t, res.TopCrops, 2)

	assert.Equal(t, "soybean", res.TopCrops[0].Crop)
	assert.Equal(t, "wheat", res.TopCrops[1].Crop)
	assert.InDelta(t, 50.0, res.TopCrops[0].MarketSharePercent, 1e-9)
	assert.InDelta(t, 30.0, res.TopCrops[1].MarketSharePercent, 1e-9)

	// The price leader is found across all crops, not only the top N.
	assert.Equal(t, "cotton", res.HighestPriceCrop)
	assert.InDelta(t, 7000.0, res.HighestAvgPrice, 1e-9)
}

func TestAnalyzeCropsSharesSumToHundred(t *testing.T) {
	txns := []Transaction{
		tx("a", day(2024, time.June, 1), "soybean", "Maharashtra", 40, 4000, BuyerTrader, StatusCompleted),
		tx("b", day(2024, time.June, 2), "wheat", "Punjab", 35, 2200, BuyerTrader, StatusCompleted),
		tx("c", day(2024, time.June, 3), "cotton", "Gujarat", 25, 7000, BuyerTrader, StatusCompleted),
	}

	res := AnalyzeCrops(txns, 0)
	total := 0.0
	for _, c := range res.TopCrops {
		total += c.MarketSharePercent
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestAnalyzeStates(t *testing.T) {
	txns := []Transaction{
		tx("a", day(2024, time.June, 1), "soybean", "Maharashtra", 400, 4000, BuyerTrader, StatusCompleted),
		tx("b", day(2024, time.June, 2), "wheat", "Punjab", 300, 2200, BuyerTrader, StatusCompleted),
		tx("c", day(2024, time.June, 3), "cotton", "Gujarat", 200, 7000, BuyerTrader, StatusCompleted),
		tx("d", day(2024, time.June, 4), "maize", "Bihar", 100, 1800, BuyerTrader, StatusCompleted),
	}

	res := AnalyzeStates(txns, 3)
	require.True(t, res.DataAvailable)
	assert.Equal(t, 4, res.TotalStates)
	require.Len(t, res.TopStates, 3)
	assert.Equal(t, "Maharashtra", res.TopStates[0].State)

	// Top three of 1000 quintals: 400 + 300 + 200.
	assert.InDelta(t, 90.0, res.Top3ConcentrationPercent, 1e-9)
}

func TestAnalyzeStatesEmpty(t *testing.T) {
	res := AnalyzeStates(nil, 5)
	assert.False(t, res.DataAvailable)
	assert.Zero(t, res.Top3ConcentrationPercent)
}

func TestAnalyzeBuyers(t *testing.T) {
	txns := []Transaction{
		// Traders move the most volume at low prices.
		tx("t1", day(2024, time.June, 1), "wheat", "Punjab", 400, 2000, BuyerTrader, StatusCompleted),
		tx("t2", day(2024, time.June, 2), "wheat", "Punjab", 200, 2100, BuyerTrader, StatusCompleted),
		// The exporter pays best but buys little.
		tx("e1", day(2024, time.June, 3), "wheat", "Punjab", 50, 3000, BuyerExporter, StatusCompleted),
	}

	res := AnalyzeBuyers(txns)
	require.True(t, res.DataAvailable)
	require.Len(t, res.Buyers, 2)

	assert.Equal(t, BuyerTrader, res.DominantBuyer)
	assert.Equal(t, BuyerExporter, res.HighestPayingBuyer)

	trader := res.Buyers[0]
	assert.Equal(t, BuyerTrader, trader.BuyerType)
	assert.Equal(t, 600.0, trader.Quantity)
	assert.InDelta(t, 300.0, trader.AvgOrderSize, 1e-9)
	assert.InDelta(t, 600.0/650.0*100, trader.MarketSharePercent, 1e-9)
}

func TestAnalyzeBuyersEmpty(t *testing.T) {
	res := AnalyzeBuyers(nil)
	assert.False(t, res.DataAvailable)
	assert.Empty(t, res.DominantBuyer)
}
