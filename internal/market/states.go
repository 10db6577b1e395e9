package market

import "sort"

// StateStats aggregates one state across the transaction set.
type StateStats struct {
	State              string  `json:"state"`
	Quantity           float64 `json:"quantity"`
	AvgPrice           float64 `json:"avg_price"`
	Transactions       int     `json:"transactions"`
	TotalValue         float64 `json:"total_value"`
	MarketSharePercent float64 `json:"market_share_percent"`
}

// StateAnalysis ranks states by traded volume.
type StateAnalysis struct {
	DataAvailable bool         `json:"data_available"`
	TopStates     []StateStats `json:"top_states"`
	// Top3ConcentrationPercent is the combined market share of the three
	// highest-volume states, a standard measure of geographic supply
	// concentration.
	Top3ConcentrationPercent float64 `json:"top3_concentration_percent"`
	TotalStates              int     `json:"total_states"`
}

// AnalyzeStates groups transactions by state, ranks them by total quantity
// descending and reports the top N plus the top-3 supply concentration.
// An empty input yields a no-data result.
func AnalyzeStates(txns []Transaction, topN int) StateAnalysis {
	accs := accumulateBy(txns, func(t Transaction) string { return t.State })
	if len(accs) == 0 {
		return StateAnalysis{}
	}

	totalQty := 0.0
	for _, a := range accs {
		totalQty += a.quantity
	}

	stats := make([]StateStats, 0, len(accs))
	for state, a := range accs {
		ss := StateStats{
			State:        state,
			Quantity:     a.quantity,
			AvgPrice:     a.avgPrice(),
			Transactions: a.count,
			TotalValue:   a.value,
		}
		if totalQty > 0 {
			ss.MarketSharePercent = a.quantity / totalQty * 100
		}
		stats = append(stats, ss)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Quantity != stats[j].Quantity {
			return stats[i].Quantity > stats[j].Quantity
		}
		return stats[i].State < stats[j].State
	})

	res := StateAnalysis{DataAvailable: true, TotalStates: len(stats)}
	for i := 0; i < len(stats) && i < 3; i++ {
		res.Top3ConcentrationPercent += stats[i].MarketSharePercent
	}

	if topN > 0 && topN < len(stats) {
		stats = stats[:topN]
	}
	res.TopStates = stats
	return res
}
