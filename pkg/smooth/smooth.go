// Package smooth fits a curve through sampled points and evaluates it at the
// original x values. Every strategy degrades to a simpler one instead of failing.
package smooth

import (
	"fmt"
	"math"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Smoother returns a smoothed copy of y, aligned to x. It never reorders
// samples and never panics on numerically bad input.
type Smoother interface {
	Smooth(x, y []float64) []float64
}

// Method selects a built-in smoothing strategy.
type Method int

const (
	MethodSpline Method = iota + 1
	MethodPolynomial
)

func (m Method) String() string {
	switch m {
	case MethodSpline:
		return "spline"
	case MethodPolynomial:
		return "polynomial"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func (m Method) Valid() bool {
	return m == MethodSpline || m == MethodPolynomial
}

// ParseMethod accepts "spline" (alias "interp1d") and "polynomial" (alias "poly").
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spline", "interp1d":
		return MethodSpline, nil
	case "polynomial", "poly":
		return MethodPolynomial, nil
	}
	return 0, fmt.Errorf("unknown interpolation method %q", s)
}

// New returns the strategy for m. degree is only used by MethodPolynomial.
func New(m Method, degree int) (Smoother, error) {
	switch m {
	case MethodSpline:
		return CubicSpline{}, nil
	case MethodPolynomial:
		return PolyFit{Degree: degree}, nil
	}
	return nil, fmt.Errorf("unknown interpolation method %v", m)
}

// evaluate runs fit and turns panics and non-finite output into an error,
// so callers can fall back.
func evaluate(fit func() ([]float64, error)) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("fit panicked: %v", r)
		}
	}()
	out, err = fit()
	if err != nil {
		return nil, err
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("fit produced non-finite value at index %d", i)
		}
	}
	return out, nil
}

func fallback(strategy string, err error, to string) {
	log.WithError(err).WithFields(log.Fields{
		"strategy": strategy,
		"fallback": to,
	}).Debug("smoothing failed")
}

func raw(y []float64) []float64 {
	return slices.Clone(y)
}
