// Package analyze infers the shape of a curve so the knee locator can be run
// without the caller naming it.
package analyze

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/runningwild/kneedle/pkg/knee"
)

// Shape is the inferred orientation of a curve.
type Shape struct {
	Direction knee.Direction
	Curve     knee.CurveType

	Slope     float64
	Intercept float64

	// Bow is the mean of y minus the fitted line over the middle of the
	// curve. Positive means the curve sits above its regression line.
	Bow float64

	// Confidence is the fraction of steps that move in Direction.
	Confidence float64
}

func (s Shape) String() string {
	return fmt.Sprintf("%s %s", s.Curve, s.Direction)
}

// ClassifyShape fits a regression line through the curve. The slope sign
// gives the direction and the sign of the mean residual over the middle 60%
// of the points gives the curvature.
func ClassifyShape(x, y []float64) (Shape, error) {
	if err := validate(x, y); err != nil {
		return Shape{}, err
	}

	// 1. Global trend
	intercept, slope := stat.LinearRegression(x, y, nil, false)

	// 2. Window over the middle of the curve
	n := len(x)
	lo, hi := int(float64(n)*0.2), int(float64(n)*0.8)
	if lo >= hi {
		lo, hi = 0, n-1
	}
	bow := 0.0
	if count := hi - lo; count > 0 {
		var actual, fitted float64
		for i := lo; i < hi; i++ {
			actual += y[i]
			fitted += slope*x[i] + intercept
		}
		bow = actual/float64(count) - fitted/float64(count)
	}

	// 3. Classify
	s := Shape{Slope: slope, Intercept: intercept, Bow: bow}
	switch {
	case slope > 0 && bow > 0:
		s.Direction, s.Curve = knee.Increasing, knee.Concave
	case slope > 0:
		s.Direction, s.Curve = knee.Increasing, knee.Convex
	case bow > 0:
		s.Direction, s.Curve = knee.Decreasing, knee.Concave
	default:
		s.Direction, s.Curve = knee.Decreasing, knee.Convex
	}
	s.Confidence = confidence(y, s.Direction)
	return s, nil
}

// LocateAuto classifies the curve, then runs the locator with cfg's other
// settings and the inferred shape.
func LocateAuto(x, y []float64, cfg knee.Config) (*knee.Locator, Shape, error) {
	s, err := ClassifyShape(x, y)
	if err != nil {
		return nil, Shape{}, err
	}
	cfg.Curve, cfg.Direction = s.Curve, s.Direction
	l, err := knee.New(x, y, cfg)
	if err != nil {
		return nil, s, err
	}
	return l, s, nil
}

// confidence returns a value between 0 and 1 describing how cleanly the curve
// follows dir. Flat steps count in its favour.
func confidence(y []float64, dir knee.Direction) float64 {
	if len(y) < 2 {
		return 0
	}
	violations := 0
	for i := 1; i < len(y); i++ {
		if (dir == knee.Increasing && y[i] < y[i-1]) || (dir == knee.Decreasing && y[i] > y[i-1]) {
			violations++
		}
	}
	return 1 - float64(violations)/float64(len(y)-1)
}

func validate(x, y []float64) error {
	if len(x) == 0 || len(y) == 0 {
		return knee.ErrEmptyCurve
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values, %d y values", knee.ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: got %d", knee.ErrTooFewPoints, len(x))
	}
	return nil
}
