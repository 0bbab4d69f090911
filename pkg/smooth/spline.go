package smooth

import (
	"gonum.org/v1/gonum/interp"
)

// CubicSpline interpolates with a natural cubic spline. Evaluated at the
// knots it reproduces y; it exists so the pipeline treats every mode alike.
// x must be strictly increasing, otherwise y is returned unchanged.
type CubicSpline struct{}

func (CubicSpline) Smooth(x, y []float64) []float64 {
	out, err := evaluate(func() ([]float64, error) {
		var nc interp.NaturalCubic
		if err := nc.Fit(x, y); err != nil {
			return nil, err
		}
		out := make([]float64, len(x))
		for i, xi := range x {
			out[i] = nc.Predict(xi)
		}
		return out, nil
	})
	if err != nil {
		fallback("spline", err, "raw")
		return raw(y)
	}
	return out
}
