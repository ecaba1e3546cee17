package vector

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kbukum/flowc/indicator"
)

// applyIndicator lowers kind to column kernels and adds the output columns
// to f.
func applyIndicator(mem memory.Allocator, f *Frame, kind indicator.Kind, p indicator.Params) *Frame {
	cols := indicatorColumns(f, kind, p)
	for i, name := range indicator.Columns(kind, p) {
		f = f.WithColumn(name, floatArray(mem, cols[i]))
	}
	return f
}

func indicatorColumns(f *Frame, kind indicator.Kind, p indicator.Params) [][]float64 {
	n := p.Window
	switch kind {
	case indicator.KindSMA:
		return [][]float64{rollingMean(f.series(p.Field), n)}
	case indicator.KindEMA:
		return [][]float64{ewm(f.series(p.Field), 2/float64(n+1))}
	case indicator.KindWMA:
		return [][]float64{rollingWeighted(f.series(p.Field), n)}
	case indicator.KindRSI:
		return [][]float64{rsiColumn(f.series(p.Field), n)}
	case indicator.KindMACD:
		x := f.series(p.Field)
		macd := sub(ewm(x, 2/float64(p.Fast+1)), ewm(x, 2/float64(p.Slow+1)))
		signal := ewm(macd, 2/float64(p.Signal+1))
		return [][]float64{macd, signal, sub(macd, signal)}
	case indicator.KindBBands:
		x := f.series(p.Field)
		mid := rollingMean(x, n)
		sd := rollingStd(x, mid, n)
		upper := zip(mid, sd, func(m, s float64) float64 { return m + p.Std*s })
		lower := zip(mid, sd, func(m, s float64) float64 { return m - p.Std*s })
		return [][]float64{mid, upper, lower}
	case indicator.KindStoch:
		k := stochK(f.series(p.High), f.series(p.Low), f.series(p.Close), n)
		return [][]float64{k, rollingMean(k, p.Smooth)}
	case indicator.KindCCI:
		return [][]float64{cciColumn(f.series(p.High), f.series(p.Low), f.series(p.Close), n)}
	case indicator.KindATR:
		tr := trueRange(f.series(p.High), f.series(p.Low), f.series(p.Close))
		return [][]float64{wilder(tr, n, 0, n-1)}
	case indicator.KindADX:
		return [][]float64{adxColumn(f.series(p.High), f.series(p.Low), f.series(p.Close), n)}
	case indicator.KindOBV:
		return [][]float64{obvColumn(f.series(p.Close), f.series(p.Vol))}
	case indicator.KindVWAP:
		price := indicator.PriceColumn(p, f.series)
		return [][]float64{vwapColumn(price, f.series(p.Vol))}
	default:
		return nil
	}
}

func rsiColumn(x []float64, n int) []float64 {
	out := filled(len(x), math.NaN())
	if len(x) <= n+1 {
		return out
	}
	d := diff(x)
	gains := make([]float64, len(x))
	losses := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		if d[i] > 0 {
			gains[i] = d[i]
		} else {
			losses[i] = -d[i]
		}
	}
	avgGain := wilder(gains, n, 1, n)
	avgLoss := wilder(losses, n, 1, n)
	for i := n + 1; i < len(x); i++ {
		if avgLoss[i] == 0 {
			out[i] = 100
		} else {
			out[i] = 100 - 100/(1+avgGain[i]/avgLoss[i])
		}
	}
	return out
}

func stochK(high, low, cl []float64, n int) []float64 {
	lo := rollingMin(low, n)
	hi := rollingMax(high, n)
	k := filled(len(cl), math.NaN())
	for i := n - 1; i < len(cl); i++ {
		if rng := hi[i] - lo[i]; rng == 0 {
			k[i] = 100
		} else {
			k[i] = 100 * (cl[i] - lo[i]) / rng
		}
	}
	return k
}

func cciColumn(high, low, cl []float64, n int) []float64 {
	tp := make([]float64, len(cl))
	for i := range tp {
		tp[i] = (high[i] + low[i] + cl[i]) / 3
	}
	mean := rollingMean(tp, n)
	mad := rollingMAD(tp, mean, n)
	out := filled(len(cl), math.NaN())
	for i := n - 1; i < len(cl); i++ {
		if mad[i] == 0 {
			out[i] = 0
		} else {
			out[i] = (tp[i] - mean[i]) / (0.015 * mad[i])
		}
	}
	return out
}

func trueRange(high, low, cl []float64) []float64 {
	prev := shift(cl)
	tr := sub(high, low)
	for i := 1; i < len(tr); i++ {
		tr[i] = math.Max(tr[i], math.Max(math.Abs(high[i]-prev[i]), math.Abs(low[i]-prev[i])))
	}
	return tr
}

func adxColumn(high, low, cl []float64, n int) []float64 {
	if len(cl) < 2*n {
		return filled(len(cl), math.NaN())
	}
	up := diff(high)
	down := each(diff(low), func(x float64) float64 { return -x })
	plus := make([]float64, len(cl))
	minus := make([]float64, len(cl))
	for i := 1; i < len(cl); i++ {
		if up[i] > down[i] && up[i] > 0 {
			plus[i] = up[i]
		}
		if down[i] > up[i] && down[i] > 0 {
			minus[i] = down[i]
		}
	}
	sTR := wilder(trueRange(high, low, cl), n, 1, n)
	sPlus := wilder(plus, n, 1, n)
	sMinus := wilder(minus, n, 1, n)

	dx := filled(len(cl), math.NaN())
	for i := n; i < len(cl); i++ {
		var diPlus, diMinus float64
		if sTR[i] != 0 {
			diPlus = 100 * sPlus[i] / sTR[i]
			diMinus = 100 * sMinus[i] / sTR[i]
		}
		dx[i] = 0
		if s := diPlus + diMinus; s != 0 {
			dx[i] = 100 * math.Abs(diPlus-diMinus) / s
		}
	}
	return wilder(dx, n, n, 2*n-1)
}

// obvColumn signs each volume by the move from the last non-null close and
// sums. The first usable row contributes its volume unsigned.
func obvColumn(cl, vol []float64) []float64 {
	signed := filled(len(cl), math.NaN())
	prev := math.NaN()
	for i := range cl {
		if math.IsNaN(cl[i]) || math.IsNaN(vol[i]) {
			continue
		}
		switch {
		case math.IsNaN(prev):
			signed[i] = vol[i]
		case cl[i] > prev:
			signed[i] = vol[i]
		case cl[i] < prev:
			signed[i] = -vol[i]
		default:
			signed[i] = 0
		}
		prev = cl[i]
	}
	return cumsum(signed)
}

func vwapColumn(price, vol []float64) []float64 {
	// p*v is null when either side is; mask the volume the same way.
	pv := cumsum(zip(price, vol, func(p, v float64) float64 { return p * v }))
	cv := cumsum(zip(price, vol, func(p, v float64) float64 {
		if math.IsNaN(p) {
			return math.NaN()
		}
		return v
	}))
	out := filled(len(price), math.NaN())
	for i := range out {
		switch {
		case math.IsNaN(pv[i]):
		case cv[i] == 0:
			out[i] = price[i]
		default:
			out[i] = pv[i] / cv[i]
		}
	}
	return out
}
