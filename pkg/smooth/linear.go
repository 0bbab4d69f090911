package smooth

import (
	"errors"
	"math"
)

// singularTolerance bounds |n·Σx² − (Σx)²| below which the normal equations
// of a straight-line fit are treated as degenerate.
const singularTolerance = 1e-10

// Linear is an ordinary least-squares straight line. If the fit is
// degenerate (e.g. all x equal) y is returned unchanged.
type Linear struct{}

func (Linear) Smooth(x, y []float64) []float64 {
	m, c, ok := leastSquares(x, y)
	if !ok {
		fallback("linear", errDegenerate, "raw")
		return raw(y)
	}
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = m*xi + c
	}
	return out
}

var errDegenerate = errors.New("degenerate linear fit")

// leastSquares performs simple linear regression over (x, y).
func leastSquares(x, y []float64) (m, c float64, ok bool) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(x))

	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}

	den := n*sumXX - sumX*sumX
	if math.Abs(den) < singularTolerance {
		return 0, 0, false
	}
	m = (n*sumXY - sumX*sumY) / den
	c = (sumY - m*sumX) / n
	return m, c, true
}
