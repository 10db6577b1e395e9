package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// tx builds a normalized transaction for tests.
func tx(id string, date time.Time, crop, state string, qty, price float64, buyer string, status OrderStatus) Transaction {
	q := decimal.NewFromFloat(qty)
	p := decimal.NewFromFloat(price)
	return Transaction{
		TransactionID: id,
		Date:          date,
		CropType:      crop,
		State:         state,
		Season:        SeasonOf(date),
		Quantity:      q,
		PricePerUnit:  p,
		TotalValue:    q.Mul(p),
		BuyerType:     buyer,
		Status:        status,
		PaymentStatus: PaymentStatusFor(status),
	}
}

// day returns a UTC calendar date.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyTxns generates one transaction per day for n days, with per-day
// quantity and price supplied by fn.
func dailyTxns(crop string, start time.Time, n int, fn func(i int) (qty, price float64)) []Transaction {
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		qty, price := fn(i)
		out = append(out, tx(
			fmt.Sprintf("%s-%03d", crop, i),
			start.AddDate(0, 0, i),
			crop, "Maharashtra", qty, price, BuyerTrader, StatusCompleted,
		))
	}
	return out
}
