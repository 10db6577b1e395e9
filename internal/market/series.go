package market

import (
	"sort"
	"time"
)

// dayKey collapses a time to its calendar day in UTC.
func dayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type dayAccumulator struct {
	quantity float64
	value    float64
	priceSum float64
	count    int
}

// BuildDailySeries aggregates transactions into one global daily series:
// quantity and value are summed, price averaged, transactions counted per
// calendar day, then the result is reindexed onto a complete daily calendar
// from the first to the last observed date. Days with no transactions get
// zero quantity/value/count; price is forward-filled from the most recent
// known price and backward-filled over any leading gap, so that price series
// do not show demand-driven zero dips.
func BuildDailySeries(txns []Transaction) *DailySeries {
	return buildSeries("", txns)
}

// BuildDailySeriesBy groups transactions by the given key and builds one
// daily series per group value.
func BuildDailySeriesBy(txns []Transaction, key GroupKey) map[string]*DailySeries {
	groups := make(map[string][]Transaction)
	for _, t := range txns {
		var k string
		switch key {
		case GroupCrop:
			k = t.CropType
		case GroupState:
			k = t.State
		case GroupBuyer:
			k = t.BuyerType
		default:
			k = ""
		}
		groups[k] = append(groups[k], t)
	}

	out := make(map[string]*DailySeries, len(groups))
	for k, group := range groups {
		out[k] = buildSeries(k, group)
	}
	return out
}

func buildSeries(key string, txns []Transaction) *DailySeries {
	acc := make(map[time.Time]*dayAccumulator)
	for _, t := range txns {
		if t.Quantity.Sign() <= 0 || t.Date.IsZero() {
			continue
		}
		day := dayKey(t.Date)
		a, ok := acc[day]
		if !ok {
			a = &dayAccumulator{}
			acc[day] = a
		}
		qty, _ := t.Quantity.Float64()
		val, _ := t.TotalValue.Float64()
		price, _ := t.PricePerUnit.Float64()
		a.quantity += qty
		a.value += val
		a.priceSum += price
		a.count++
	}

	series := &DailySeries{Key: key, observedDates: len(acc)}
	if len(acc) == 0 {
		return series
	}

	days := make([]time.Time, 0, len(acc))
	for d := range acc {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	span := int(last.Sub(first).Hours()/24) + 1
	series.Points = make([]DailyPoint, 0, span)

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		p := DailyPoint{Date: d}
		if a, ok := acc[d]; ok {
			p.Quantity = a.quantity
			p.Value = a.value
			p.AvgPrice = a.priceSum / float64(a.count)
			p.Count = a.count
		}
		series.Points = append(series.Points, p)
	}

	fillPrices(series.Points)
	return series
}

// fillPrices forward-fills gaps in the price column, then backward-fills any
// leading run of zero days from the first observed price.
func fillPrices(points []DailyPoint) {
	lastPrice := 0.0
	firstIdx := -1
	for i := range points {
		if points[i].Count > 0 {
			lastPrice = points[i].AvgPrice
			if firstIdx < 0 {
				firstIdx = i
			}
		} else if lastPrice > 0 {
			points[i].AvgPrice = lastPrice
		}
	}
	if firstIdx > 0 {
		for i := 0; i < firstIdx; i++ {
			points[i].AvgPrice = points[firstIdx].AvgPrice
		}
	}
}
