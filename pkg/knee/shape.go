package knee

import (
	"fmt"
	"strings"

	"github.com/runningwild/kneedle/pkg/smooth"
)

// CurveType says whether the curve bends like a knee (concave) or an elbow (convex).
// The zero value is unset and rejected by New.
type CurveType int

const (
	Concave CurveType = iota + 1
	Convex
)

func (c CurveType) String() string {
	switch c {
	case Concave:
		return "concave"
	case Convex:
		return "convex"
	}
	return fmt.Sprintf("CurveType(%d)", int(c))
}

func (c CurveType) Valid() bool { return c == Concave || c == Convex }

func ParseCurveType(s string) (CurveType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "concave":
		return Concave, nil
	case "convex":
		return Convex, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCurve, s)
}

// Direction is the overall trend of y as x grows. The zero value is unset.
type Direction int

const (
	Increasing Direction = iota + 1
	Decreasing
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d Direction) Valid() bool { return d == Increasing || d == Decreasing }

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increasing":
		return Increasing, nil
	case "decreasing":
		return Decreasing, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Interpolation selects the smoothing strategy applied before detection.
type Interpolation = smooth.Method

const (
	Spline     = smooth.MethodSpline
	Polynomial = smooth.MethodPolynomial
)

func ParseInterpolation(s string) (Interpolation, error) {
	m, err := smooth.ParseMethod(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterpolation, s)
	}
	return m, nil
}
