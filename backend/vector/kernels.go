package vector

import "math"

// Column kernels. Each works on a whole []float64 column with NaN as null.
// Window sums run oldest to newest, which keeps results identical to the
// row-wise indicator arithmetic.

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// rolling applies agg to every full window of n values ending at row i.
func rolling(xs []float64, n int, agg func(w []float64, i int) float64) []float64 {
	out := filled(len(xs), math.NaN())
	for i := n - 1; i < len(xs); i++ {
		out[i] = agg(xs[i-n+1:i+1], i)
	}
	return out
}

func rollingSum(xs []float64, n int) []float64 {
	return rolling(xs, n, func(w []float64, _ int) float64 {
		s := 0.0
		for _, x := range w {
			s += x
		}
		return s
	})
}

func rollingMean(xs []float64, n int) []float64 {
	sums := rollingSum(xs, n)
	for i := range sums {
		sums[i] /= float64(n)
	}
	return sums
}

// rollingStd is the population standard deviation around means.
func rollingStd(xs, means []float64, n int) []float64 {
	return rolling(xs, n, func(w []float64, i int) float64 {
		ss := 0.0
		for _, x := range w {
			d := x - means[i]
			ss += d * d
		}
		return math.Sqrt(ss / float64(n))
	})
}

// rollingMAD is the mean absolute deviation around means.
func rollingMAD(xs, means []float64, n int) []float64 {
	return rolling(xs, n, func(w []float64, i int) float64 {
		s := 0.0
		for _, x := range w {
			s += math.Abs(x - means[i])
		}
		return s / float64(n)
	})
}

func rollingMin(xs []float64, n int) []float64 {
	return rolling(xs, n, func(w []float64, _ int) float64 {
		m := w[0]
		for _, x := range w[1:] {
			m = math.Min(m, x)
		}
		return m
	})
}

func rollingMax(xs []float64, n int) []float64 {
	return rolling(xs, n, func(w []float64, _ int) float64 {
		m := w[0]
		for _, x := range w[1:] {
			m = math.Max(m, x)
		}
		return m
	})
}

// rollingWeighted is the linearly weighted mean with weights 1..n.
func rollingWeighted(xs []float64, n int) []float64 {
	denom := float64(n*(n+1)) / 2
	return rolling(xs, n, func(w []float64, _ int) float64 {
		s := 0.0
		for j, x := range w {
			s += float64(j+1) * x
		}
		return s / denom
	})
}

// ewm is the recursive exponentially weighted mean without bias
// adjustment, seeded with the first non-null value. Nulls stay null and do
// not move the mean.
func ewm(xs []float64, alpha float64) []float64 {
	out := filled(len(xs), math.NaN())
	e, seeded := 0.0, false
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if seeded {
			e = alpha*x + (1-alpha)*e
		} else {
			e, seeded = x, true
		}
		out[i] = e
	}
	return out
}

// wilder seeds at row seed with the mean of xs[from..seed] and continues
// with alpha 1/n. Earlier rows are null.
func wilder(xs []float64, n, from, seed int) []float64 {
	out := filled(len(xs), math.NaN())
	if seed >= len(xs) || from > seed {
		return out
	}
	s := 0.0
	for _, x := range xs[from : seed+1] {
		s += x
	}
	out[seed] = s / float64(seed-from+1)
	alpha := 1 / float64(n)
	for i := seed + 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// diff is xs[i]-xs[i-1]; row 0 is null.
func diff(xs []float64) []float64 {
	out := filled(len(xs), math.NaN())
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// shift moves values down by one row; row 0 is null.
func shift(xs []float64) []float64 {
	out := filled(len(xs), math.NaN())
	copy(out[1:], xs)
	return out
}

// cumsum is the running sum. Null rows stay null and add nothing.
func cumsum(xs []float64) []float64 {
	out := filled(len(xs), math.NaN())
	s := 0.0
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		s += x
		out[i] = s
	}
	return out
}

// zip combines two columns element-wise.
func zip(a, b []float64, fn func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = fn(a[i], b[i])
	}
	return out
}

// each maps a column element-wise.
func each(xs []float64, fn func(x float64) float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = fn(x)
	}
	return out
}

func sub(a, b []float64) []float64 { return zip(a, b, func(x, y float64) float64 { return x - y }) }
