package smooth

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrSingular = errors.New("singular design matrix")

// PolyFit is a least-squares polynomial of the given degree. With no more
// points than coefficients the degree drops to n-1, which interpolates. On
// failure it falls back to Linear.
type PolyFit struct {
	Degree int
}

func (p PolyFit) Smooth(x, y []float64) []float64 {
	out, err := evaluate(func() ([]float64, error) {
		return polyfit(x, y, p.Degree)
	})
	if err != nil {
		fallback(fmt.Sprintf("polynomial(%d)", p.Degree), err, "linear")
		return Linear{}.Smooth(x, y)
	}
	return out
}

func polyfit(x, y []float64, degree int) ([]float64, error) {
	if degree < 0 {
		return nil, fmt.Errorf("negative degree %d", degree)
	}
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("length mismatch: %d x values, %d y values", n, len(y))
	}
	if n <= degree {
		degree = n - 1
	}

	// Fit in a centred and scaled coordinate so high powers stay near 1.
	center := stat.Mean(x, nil)
	scale := math.Max(math.Abs(floats.Max(x)-center), math.Abs(floats.Min(x)-center))
	if scale == 0 {
		return nil, ErrSingular
	}

	a := mat.NewDense(n, degree+1, nil)
	for i, xi := range x {
		t := (xi - center) / scale
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= t
		}
	}
	b := mat.NewVecDense(n, slices.Clone(y))

	var qr mat.QR
	qr.Factorize(a)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := make([]float64, n)
	for i, xi := range x {
		t := (xi - center) / scale
		v := 0.0
		for j := degree; j >= 0; j-- {
			v = v*t + coef.AtVec(j)
		}
		out[i] = v
	}
	return out, nil
}
