package indicator

import (
	"math"
)

// The series functions work on []float64 with NaN marking nulls. Window
// sums always run oldest to newest so every backend rounds the same way.

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMASeries is the simple moving average. Rows before the first full window
// are null.
func SMASeries(xs []float64, n int) []float64 {
	out := nans(len(xs))
	for i := n - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - n + 1; j <= i; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// EMASeries is the exponential moving average seeded with the first value,
// with alpha 2/(n+1).
func EMASeries(xs []float64, n int) []float64 {
	return EWMSeries(xs, 2/float64(n+1))
}

// EWMSeries is the recursive exponentially weighted mean
// e_i = alpha*x_i + (1-alpha)*e_{i-1}, seeded with the first non-null value.
// A null input gives a null output and leaves the running mean as it was.
func EWMSeries(xs []float64, alpha float64) []float64 {
	out := nans(len(xs))
	e, seeded := 0.0, false
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
			continue
		case !seeded:
			e, seeded = x, true
		default:
			e = alpha*x + (1-alpha)*e
		}
		out[i] = e
	}
	return out
}

// WMASeries is the linearly weighted moving average, newest weight n.
func WMASeries(xs []float64, n int) []float64 {
	out := nans(len(xs))
	denom := float64(n*(n+1)) / 2
	for i := n - 1; i < len(xs); i++ {
		sum := 0.0
		for w, j := 1, i-n+1; j <= i; w, j = w+1, j+1 {
			sum += float64(w) * xs[j]
		}
		out[i] = sum / denom
	}
	return out
}

// RSISeries is Wilder's relative strength index. Averages are seeded at row n
// with the mean gain and loss over rows 1..n; the first value is emitted at
// row n+1.
func RSISeries(xs []float64, n int) []float64 {
	out := nans(len(xs))
	if len(xs) <= n+1 {
		return out
	}
	gains := make([]float64, len(xs))
	losses := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)

	alpha := 1 / float64(n)
	for i := n + 1; i < len(xs); i++ {
		avgGain = alpha*gains[i] + (1-alpha)*avgGain
		avgLoss = alpha*losses[i] + (1-alpha)*avgLoss
		out[i] = rsi(avgGain, avgLoss)
	}
	return out
}

func rsi(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACDSeries returns the MACD line, its signal line and the histogram.
func MACDSeries(xs []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	ef := EMASeries(xs, fast)
	es := EMASeries(xs, slow)
	macd = make([]float64, len(xs))
	for i := range xs {
		macd[i] = ef[i] - es[i]
	}
	sig = EMASeries(macd, signal)
	hist = make([]float64, len(xs))
	for i := range xs {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// BollingerSeries returns the middle, upper and lower bands using the
// population standard deviation of each window.
func BollingerSeries(xs []float64, n int, k float64) (mid, upper, lower []float64) {
	mid = SMASeries(xs, n)
	upper = nans(len(xs))
	lower = nans(len(xs))
	for i := n - 1; i < len(xs); i++ {
		sd := StdSeriesAt(xs, i, n, mid[i])
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return mid, upper, lower
}

// StdSeriesAt is the population standard deviation of xs[i-n+1..i] around mean.
func StdSeriesAt(xs []float64, i, n int, mean float64) float64 {
	ss := 0.0
	for j := i - n + 1; j <= i; j++ {
		d := xs[j] - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// StochSeries returns %K over n rows and %D, the smooth-row SMA of %K. A
// zero high-low range gives %K of 100.
func StochSeries(high, low, cl []float64, n, smooth int) (k, d []float64) {
	k = nans(len(cl))
	for i := n - 1; i < len(cl); i++ {
		minL, maxH := low[i-n+1], high[i-n+1]
		for j := i - n + 2; j <= i; j++ {
			minL = math.Min(minL, low[j])
			maxH = math.Max(maxH, high[j])
		}
		if rng := maxH - minL; rng == 0 {
			k[i] = 100
		} else {
			k[i] = 100 * (cl[i] - minL) / rng
		}
	}
	return k, SMASeries(k, smooth)
}

// TypicalPrice is (high+low+close)/3.
func TypicalPrice(high, low, cl []float64) []float64 {
	out := make([]float64, len(cl))
	for i := range cl {
		out[i] = (high[i] + low[i] + cl[i]) / 3
	}
	return out
}

// CCISeries is the commodity channel index; 0 when the mean absolute
// deviation is zero.
func CCISeries(high, low, cl []float64, n int) []float64 {
	tp := TypicalPrice(high, low, cl)
	sma := SMASeries(tp, n)
	out := nans(len(cl))
	for i := n - 1; i < len(cl); i++ {
		md := 0.0
		for j := i - n + 1; j <= i; j++ {
			md += math.Abs(tp[j] - sma[i])
		}
		md /= float64(n)
		if md == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * md)
	}
	return out
}

// TrueRangeSeries is high-low on the first row and the largest of high-low,
// |high-prev close| and |low-prev close| afterwards.
func TrueRangeSeries(high, low, cl []float64) []float64 {
	out := make([]float64, len(cl))
	for i := range cl {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		out[i] = math.Max(hl, math.Max(math.Abs(high[i]-cl[i-1]), math.Abs(low[i]-cl[i-1])))
	}
	return out
}

// WilderSeries seeds at row seed with the mean of xs[from..seed] and then
// applies s = x/n + (1-1/n)s. Rows before seed are null.
func WilderSeries(xs []float64, n, from, seed int) []float64 {
	out := nans(len(xs))
	if seed >= len(xs) || from > seed {
		return out
	}
	s := 0.0
	for j := from; j <= seed; j++ {
		s += xs[j]
	}
	s /= float64(seed - from + 1)
	out[seed] = s
	alpha := 1 / float64(n)
	for i := seed + 1; i < len(xs); i++ {
		s = alpha*xs[i] + (1-alpha)*s
		out[i] = s
	}
	return out
}

// ATRSeries is the average true range, seeded at row n-1 with the mean of
// the first n true ranges.
func ATRSeries(high, low, cl []float64, n int) []float64 {
	return WilderSeries(TrueRangeSeries(high, low, cl), n, 0, n-1)
}

// DirectionalMovement returns +DM and -DM; row 0 is zero.
func DirectionalMovement(high, low []float64) (plus, minus []float64) {
	plus = make([]float64, len(high))
	minus = make([]float64, len(high))
	for i := 1; i < len(high); i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plus[i] = up
		}
		if down > up && down > 0 {
			minus[i] = down
		}
	}
	return plus, minus
}

// ADXSeries is Wilder's average directional index. Smoothed TR and DM are
// seeded at row n over rows 1..n; ADX is seeded at row 2n-1 with the mean of
// DX over rows n..2n-1.
func ADXSeries(high, low, cl []float64, n int) []float64 {
	out := nans(len(cl))
	if len(cl) < 2*n {
		return out
	}
	tr := TrueRangeSeries(high, low, cl)
	plus, minus := DirectionalMovement(high, low)
	sTR := WilderSeries(tr, n, 1, n)
	sPlus := WilderSeries(plus, n, 1, n)
	sMinus := WilderSeries(minus, n, 1, n)

	dx := nans(len(cl))
	for i := n; i < len(cl); i++ {
		var diPlus, diMinus float64
		if sTR[i] != 0 {
			diPlus = 100 * sPlus[i] / sTR[i]
			diMinus = 100 * sMinus[i] / sTR[i]
		}
		if sum := diPlus + diMinus; sum != 0 {
			dx[i] = 100 * math.Abs(diPlus-diMinus) / sum
		} else {
			dx[i] = 0
		}
	}
	return WilderSeries(dx, n, n, 2*n-1)
}

// OBVSeries is on-balance volume seeded with the first volume. Rows with a
// null close or volume are null and are skipped: the next row compares
// against the last non-null close.
func OBVSeries(cl, vol []float64) []float64 {
	out := nans(len(cl))
	obv, prev, seeded := 0.0, 0.0, false
	for i := range cl {
		if math.IsNaN(cl[i]) || math.IsNaN(vol[i]) {
			continue
		}
		switch {
		case !seeded:
			obv, seeded = vol[i], true
		case cl[i] > prev:
			obv += vol[i]
		case cl[i] < prev:
			obv -= vol[i]
		}
		prev = cl[i]
		out[i] = obv
	}
	return out
}

// VWAPSeries is cumulative price*volume over cumulative volume; the price
// itself while cumulative volume is zero. Rows with a null price or volume
// are null and add nothing to the running sums.
func VWAPSeries(price, vol []float64) []float64 {
	out := nans(len(price))
	cumPV, cumV := 0.0, 0.0
	for i := range price {
		if math.IsNaN(price[i]) || math.IsNaN(vol[i]) {
			continue
		}
		cumPV += price[i] * vol[i]
		cumV += vol[i]
		if cumV == 0 {
			out[i] = price[i]
			continue
		}
		out[i] = cumPV / cumV
	}
	return out
}
