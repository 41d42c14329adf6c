package stats

import (
	"math"
	"sort"
)

// Outlier trimming bounds used by the scatter diagnostics (98.5% band)
const (
	LowerTrimQuantile = 0.0075
	UpperTrimQuantile = 0.9925
)

// Finite returns the values that are neither NaN nor ±Inf
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FiniteFromPtrs collects the finite, non-nil values of a nullable column
func FiniteFromPtrs(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		out = append(out, *v)
	}
	return out
}

// Quantile returns the q-th quantile of sorted using linear interpolation
// between closest ranks (numpy default). sorted must be ascending and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// TrimBounds drops non-finite values and returns the 0.75th and 99.25th
// percentiles. ok is false when fewer than two finite values remain.
func TrimBounds(values []float64) (lower, upper float64, ok bool) {
	finite := Finite(values)
	if len(finite) < 2 {
		return 0, 0, false
	}
	sort.Float64s(finite)
	return Quantile(finite, LowerTrimQuantile), Quantile(finite, UpperTrimQuantile), true
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// MaxDrawdown returns the largest peak-to-trough decline of curve as a fraction
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := curve[0]
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// HistoricalVaR returns the historical-simulation value at risk of returns at
// the given confidence and the expected shortfall (mean of the tail up to the
// VaR observation). Both are reported as positive losses, 0 when the tail is
// not a loss. ok is false when no finite return remains.
func HistoricalVaR(returns []float64, confidence float64) (valueAtRisk, shortfall float64, ok bool) {
	sorted := Finite(returns)
	if len(sorted) == 0 {
		return 0, 0, false
	}
	sort.Float64s(sorted)

	// 1e-9: (1-0.9)*10 이 0.999... 로 내려가는 것 방지
	idx := int(math.Floor((1-confidence)*float64(len(sorted)) + 1e-9))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}

	valueAtRisk = math.Max(0, -sorted[idx])
	shortfall = math.Max(0, -Mean(sorted[:idx+1]))
	return valueAtRisk, shortfall, true
}

// Pearson returns the correlation of the pairs where both values are present
// and finite (pairwise-complete). ok is false with fewer than two pairs or a
// constant column.
func Pearson(x, y []*float64) (r float64, ok bool) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			continue
		}
		xs = append(xs, *x[i])
		ys = append(ys, *y[i])
	}
	if len(xs) < 2 {
		return 0, false
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
