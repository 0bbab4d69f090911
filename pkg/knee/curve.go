package knee

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// flatness is the largest difference-curve peak that still counts as a
// straight line.
const flatness = 1e-6

// normalize min-max scales a into [0, 1]. A constant input maps to zeros.
func normalize(a []float64) []float64 {
	out := make([]float64, len(a))
	if len(a) == 0 {
		return out
	}
	lo, hi := floats.Min(a), floats.Max(a)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range a {
		out[i] = (v - lo) / span
	}
	return out
}

// orient maps a normalized y onto the increasing, concave shape the scanner
// expects. x is never touched.
func orient(y []float64, d Direction, c CurveType) []float64 {
	out := slices.Clone(y)
	if len(out) == 0 {
		return out
	}
	top := floats.Max(y)
	switch {
	case d == Decreasing && c == Concave:
		slices.Reverse(out)
	case d == Decreasing && c == Convex:
		reflect(out, top)
	case d == Increasing && c == Convex:
		reflect(out, top)
		slices.Reverse(out)
	}
	return out
}

func reflect(a []float64, top float64) {
	for i, v := range a {
		a[i] = top - v
	}
}

// difference is yNorm - xNorm: how far the oriented curve bows above the diagonal.
func difference(xNorm, yNorm []float64) []float64 {
	out := make([]float64, len(yNorm))
	floats.SubTo(out, yNorm, xNorm)
	return out
}

// localMaxima returns, in ascending order, every index not smaller than its
// neighbours. Plateaus count.
func localMaxima(d []float64) []int {
	return extrema(d, func(a, b float64) bool { return a >= b })
}

// localMinima mirrors localMaxima.
func localMinima(d []float64) []int {
	return extrema(d, func(a, b float64) bool { return a <= b })
}

func extrema(d []float64, holds func(a, b float64) bool) []int {
	n := len(d)
	idx := []int{}
	if n < 2 {
		return idx
	}
	if holds(d[0], d[1]) {
		idx = append(idx, 0)
	}
	for i := 1; i < n-1; i++ {
		if holds(d[i], d[i-1]) && holds(d[i], d[i+1]) {
			idx = append(idx, i)
		}
	}
	if holds(d[n-1], d[n-2]) {
		idx = append(idx, n-1)
	}
	return idx
}

// meanAbsDiff is the mean spacing between consecutive values.
func meanAbsDiff(a []float64) float64 {
	if len(a) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(a); i++ {
		sum += math.Abs(a[i] - a[i-1])
	}
	return sum / float64(len(a)-1)
}

// thresholds gives each local maximum the level the difference curve must
// drop below to confirm it.
func thresholds(diff []float64, maxima []int, sensitivity, step float64) []float64 {
	tmx := make([]float64, len(maxima))
	for k, i := range maxima {
		tmx[k] = diff[i] - sensitivity*step
	}
	return tmx
}
