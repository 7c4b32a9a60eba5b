// Package stats holds the small NaN-aware numeric helpers shared by the cleaning
// stages. Missing values are represented as NaN throughout and are skipped here.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NonNull returns the non-NaN values of vals, in order.
func NonNull(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// CountNull returns the number of NaN entries.
func CountNull(vals []float64) int {
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Sorted returns a sorted copy of the non-NaN values.
func Sorted(vals []float64) []float64 {
	cp := NonNull(vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-quantile of the non-NaN values using linear interpolation
// between closest ranks (position q*(n-1)). NaN when there are no values.
func Quantile(vals []float64, q float64) float64 {
	return quantileSorted(Sorted(vals), q)
}

// Quantiles computes several quantiles with a single sort.
func Quantiles(vals []float64, qs ...float64) []float64 {
	sorted := Sorted(vals)
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = quantileSorted(sorted, q)
	}
	return out
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median of the non-NaN values.
func Median(vals []float64) float64 { return Quantile(vals, 0.5) }

// Mean of the non-NaN values; NaN when there are none.
func Mean(vals []float64) float64 {
	x := NonNull(vals)
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// SampleStd is the Bessel-corrected standard deviation of the non-NaN values; NaN
// for fewer than two values.
func SampleStd(vals []float64) float64 {
	x := NonNull(vals)
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// PopMeanStd returns the mean and population standard deviation of the non-NaN
// values; both NaN when there are none.
func PopMeanStd(vals []float64) (mean, std float64) {
	x := NonNull(vals)
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(x, nil)
}

// IQRBounds returns Q1 - k*IQR and Q3 + k*IQR for the non-NaN values.
func IQRBounds(vals []float64, k float64) (lower, upper float64) {
	q := Quantiles(vals, 0.25, 0.75)
	iqr := q[1] - q[0]
	return q[0] - k*iqr, q[1] + k*iqr
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
