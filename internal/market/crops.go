package market

import "sort"

// segmentStats carries the aggregates shared by the crop, state and buyer
// decompositions.
type segmentStats struct {
	quantity, value, priceSum float64
	count                     int
}

func (s *segmentStats) avgPrice() float64 {
	if s.count == 0 {
		return 0
	}
	return s.priceSum / float64(s.count)
}

func accumulateBy(txns []Transaction, key func(Transaction) string) map[string]*segmentStats {
	accs := map[string]*segmentStats{}
	for _, t := range txns {
		k := key(t)
		if k == "" {
			continue
		}
		a, ok := accs[k]
		if !ok {
			a = &segmentStats{}
			accs[k] = a
		}
		qty, _ := t.Quantity.Float64()
		val, _ := t.TotalValue.Float64()
		price, _ := t.PricePerUnit.Float64()
		a.quantity += qty
		a.value += val
		a.priceSum += price
		a.count++
	}
	return accs
}

// CropStats aggregates one crop across the transaction set.
type CropStats struct {
	Crop               string  `json:"crop"`
	Quantity           float64 `json:"quantity"`
	AvgPrice           float64 `json:"avg_price"`
	Transactions       int     `json:"transactions"`
	TotalValue         float64 `json:"total_value"`
	MarketSharePercent float64 `json:"market_share_percent"`
}

// CropAnalysis ranks crops by traded volume.
type CropAnalysis struct {
	DataAvailable bool        `json:"data_available"`
	TopCrops      []CropStats `json:"top_crops"`
	// HighestPriceCrop has the single highest average price; it need not be
	// a high-volume crop.
	HighestPriceCrop string  `json:"highest_price_crop,omitempty"`
	HighestAvgPrice  float64 `json:"highest_avg_price"`
	TotalCrops       int     `json:"total_crops"`
}

// AnalyzeCrops groups transactions by crop, ranks them by total quantity
// descending and reports the top N with market-share percentages. Shares are
// computed against the full crop set, so they sum to at most 100 regardless
// of N. An empty input yields a no-data result.
func AnalyzeCrops(txns []Transaction, topN int) CropAnalysis {
	accs := accumulateBy(txns, func(t Transaction) string { return t.CropType })
	if len(accs) == 0 {
		return CropAnalysis{}
	}

	totalQty := 0.0
	for _, a := range accs {
		totalQty += a.quantity
	}

	stats := make([]CropStats, 0, len(accs))
	res := CropAnalysis{DataAvailable: true, TotalCrops: len(accs)}
	for crop, a := range accs {
		cs := CropStats{
			Crop:         crop,
			Quantity:     a.quantity,
			AvgPrice:     a.avgPrice(),
			Transactions: a.count,
			TotalValue:   a.value,
		}
		if totalQty > 0 {
			cs.MarketSharePercent = a.quantity / totalQty * 100
		}
		if cs.AvgPrice > res.HighestAvgPrice {
			res.HighestAvgPrice = cs.AvgPrice
			res.HighestPriceCrop = crop
		}
		stats = append(stats, cs)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Quantity != stats[j].Quantity {
			return stats[i].Quantity > stats[j].Quantity
		}
		return stats[i].Crop < stats[j].Crop
	})

	if topN > 0 && topN < len(stats) {
		stats = stats[:topN]
	}
	res.TopCrops = stats
	return res
}
