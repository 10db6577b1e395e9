package market

import "sort"

// BuyerStats aggregates one buyer type across the transaction set.
type BuyerStats struct {
	BuyerType          string  `json:"buyer_type"`
	Quantity           float64 `json:"quantity"`
	AvgPrice           float64 `json:"avg_price"`
	AvgOrderSize       float64 `json:"avg_order_size"` // quintals per transaction
	Transactions       int     `json:"transactions"`
	TotalValue         float64 `json:"total_value"`
	MarketSharePercent float64 `json:"market_share_percent"`
}

// BuyerAnalysis decomposes demand by buyer type.
type BuyerAnalysis struct {
	DataAvailable bool         `json:"data_available"`
	Buyers        []BuyerStats `json:"buyers"`
	// DominantBuyer moves the most volume; HighestPayingBuyer pays the best
	// average price. The two need not coincide.
	DominantBuyer      string `json:"dominant_buyer,omitempty"`
	HighestPayingBuyer string `json:"highest_paying_buyer,omitempty"`
}

// AnalyzeBuyers groups transactions by buyer type and reports market share,
// average order size, the dominant buyer by volume and the highest-paying
// buyer by average price. An empty input yields a no-data result.
func AnalyzeBuyers(txns []Transaction) BuyerAnalysis {
	accs := accumulateBy(txns, func(t Transaction) string { return t.BuyerType })
	if len(accs) == 0 {
		return BuyerAnalysis{}
	}

	totalQty := 0.0
	for _, a := range accs {
		totalQty += a.quantity
	}

	res := BuyerAnalysis{DataAvailable: true}
	var bestQty, bestPrice float64
	for buyer, a := range accs {
		bs := BuyerStats{
			BuyerType:    buyer,
			Quantity:     a.quantity,
			AvgPrice:     a.avgPrice(),
			AvgOrderSize: a.quantity / float64(a.count),
			Transactions: a.count,
			TotalValue:   a.value,
		}
		if totalQty > 0 {
			bs.MarketSharePercent = a.quantity / totalQty * 100
		}
		if bs.Quantity > bestQty {
			bestQty = bs.Quantity
			res.DominantBuyer = buyer
		}
		if bs.AvgPrice > bestPrice {
			bestPrice = bs.AvgPrice
			res.HighestPayingBuyer = buyer
		}
		res.Buyers = append(res.Buyers, bs)
	}

	sort.Slice(res.Buyers, func(i, j int) bool {
		if res.Buyers[i].Quantity != res.Buyers[j].Quantity {
			return res.Buyers[i].Quantity > res.Buyers[j].Quantity
		}
		return res.Buyers[i].BuyerType < res.Buyers[j].BuyerType
	})
	return res
}
