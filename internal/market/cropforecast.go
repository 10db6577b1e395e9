package market

// CropForecast is the per-crop forecast wrapper result. A failed forecast is
// reported through the Error field, never as an exception to the caller.
type CropForecast struct {
	Crop         string          `json:"crop"`
	Transactions int             `json:"transactions"`
	Demand       *ForecastResult `json:"demand,omitempty"`
	Price        *ForecastResult `json:"price,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ForecastCrop filters the transaction set to one crop, builds its own daily
// series and forecasts demand and price over the horizon. Per-crop series are
// sparser than the global one, so the relaxed MinCropTransactions threshold
// applies. Below the threshold the result carries an error string.
func ForecastCrop(txns []Transaction, crop string, horizon int) (CropForecast, error) {
	if horizon <= 0 {
		return CropForecast{}, ErrInvalidHorizon
	}

	var filtered []Transaction
	for _, t := range txns {
		if t.CropType == crop {
			filtered = append(filtered, t)
		}
	}

	cf := CropForecast{Crop: crop, Transactions: len(filtered)}
	if len(filtered) < MinCropTransactions {
		cf.Error = (&InsufficientDataError{Needed: MinCropTransactions, Got: len(filtered)}).Error()
		return cf, nil
	}

	series := BuildDailySeries(filtered)
	if series.Insufficient() {
		cf.Error = (&InsufficientDataError{Needed: 2, Got: series.observedDates}).Error()
		return cf, nil
	}

	// Per-crop series use the shorter price-style order for both axes; the
	// sparser data does not support the longer quantity lag structure.
	cf.Demand = runForecast(series.Quantities(), series.End(), horizon, priceOrder)
	cf.Price = runForecast(series.Prices(), series.End(), horizon, priceOrder)
	return cf, nil
}
