// Package indicatortest provides deterministic OHLCV data for indicator and
// backend tests.
package indicatortest

import (
	"math"

	"github.com/kbukum/flowc/record"
)

// OHLCV returns n rows of synthetic bars with keys open, high, low, close and
// volume. The close oscillates around an upward drift, so the series has both
// up and down days, ties never occur and volume is never zero.
func OHLCV(n int) []record.Row {
	rows := make([]record.Row, n)
	prev := 100.0
	for i := range rows {
		x := float64(i)
		cl := 100 + 10*math.Sin(x/5) + 0.3*x
		open := prev
		high := math.Max(open, cl) + 1 + float64(i%3)*0.2
		low := math.Min(open, cl) - 1 - float64(i%4)*0.1
		rows[i] = record.Row{
			"open":   open,
			"high":   high,
			"low":    low,
			"close":  cl,
			"volume": float64(1000 + (i*37)%500),
		}
		prev = cl
	}
	return rows
}

// Bars is the standard fifty-row fixture.
func Bars() []record.Row {
	return OHLCV(50)
}
