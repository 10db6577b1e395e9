package market

// SeasonStats aggregates one cropping season.
type SeasonStats struct {
	Season       Season  `json:"season"`
	Quantity     float64 `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	Transactions int     `json:"transactions"`
	TotalValue   float64 `json:"total_value"`
}

// SeasonalAnalysis decomposes market activity by cropping season.
type SeasonalAnalysis struct {
	DataAvailable bool          `json:"data_available"`
	Seasons       []SeasonStats `json:"seasons"`
	// PeakSeason is the season with the higher total quantity.
	PeakSeason Season `json:"peak_season,omitempty"`
	// PricePremiumPercent is how much higher the average price of the
	// higher-priced season is, relative to the other season.
	PricePremiumSeason  Season  `json:"price_premium_season,omitempty"`
	PricePremiumPercent float64 `json:"price_premium_percent"`
}

// AnalyzeSeasons groups transactions by season and identifies the peak-volume
// season and the relative price premium of the higher-priced season. An empty
// input yields a no-data result, never an error.
func AnalyzeSeasons(txns []Transaction) SeasonalAnalysis {
	type acc struct {
		quantity, value, priceSum float64
		count                     int
	}
	accs := map[Season]*acc{}

	for _, t := range txns {
		s := t.Season
		if s != SeasonKharif && s != SeasonRabi {
			continue
		}
		a, ok := accs[s]
		if !ok {
			a = &acc{}
			accs[s] = a
		}
		qty, _ := t.Quantity.Float64()
		val, _ := t.TotalValue.Float64()
		price, _ := t.PricePerUnit.Float64()
		a.quantity += qty
		a.value += val
		a.priceSum += price
		a.count++
	}

	if len(accs) == 0 {
		return SeasonalAnalysis{}
	}

	res := SeasonalAnalysis{DataAvailable: true}
	for _, s := range []Season{SeasonKharif, SeasonRabi} {
		a, ok := accs[s]
		if !ok {
			continue
		}
		res.Seasons = append(res.Seasons, SeasonStats{
			Season:       s,
			Quantity:     a.quantity,
			AvgPrice:     a.priceSum / float64(a.count),
			Transactions: a.count,
			TotalValue:   a.value,
		})
	}

	peak := res.Seasons[0]
	priciest := res.Seasons[0]
	for _, s := range res.Seasons[1:] {
		if s.Quantity > peak.Quantity {
			peak = s
		}
		if s.AvgPrice > priciest.AvgPrice {
			priciest = s
		}
	}
	res.PeakSeason = peak.Season

	if len(res.Seasons) == 2 {
		other := res.Seasons[0]
		if other.Season == priciest.Season {
			other = res.Seasons[1]
		}
		if other.AvgPrice > 0 {
			res.PricePremiumSeason = priciest.Season
			res.PricePremiumPercent = (priciest.AvgPrice - other.AvgPrice) / other.AvgPrice * 100
		}
	}
	return res
}
