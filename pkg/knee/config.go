package knee

import (
	"errors"
	"fmt"
	"math"

	"github.com/runningwild/kneedle/pkg/smooth"
)

var (
	ErrEmptyCurve           = errors.New("x and y must not be empty")
	ErrLengthMismatch       = errors.New("x and y must have the same length")
	ErrTooFewPoints         = errors.New("need at least 2 points")
	ErrInvalidCurve         = errors.New("invalid curve type")
	ErrInvalidDirection     = errors.New("invalid direction")
	ErrInvalidInterpolation = errors.New("invalid interpolation method")
	ErrInvalidSensitivity   = errors.New("sensitivity must be a non-negative number")
)

// Config holds the detection parameters.
type Config struct {
	// Sensitivity is how far, in mean x-steps of the normalized curve, the
	// difference curve has to fall below a local maximum before that maximum
	// is confirmed as a knee. 0 accepts the first local maximum.
	Sensitivity float64

	Curve         CurveType
	Direction     Direction
	Interpolation Interpolation

	// Online keeps scanning after the first knee and reports the last one found.
	Online bool

	// PolynomialDegree is only used with Polynomial interpolation.
	PolynomialDegree int

	// Smoother, when set, replaces the strategy chosen by Interpolation.
	Smoother smooth.Smoother
}

const (
	DefaultSensitivity      = 1.0
	DefaultPolynomialDegree = 7
)

func DefaultConfig() Config {
	return Config{
		Sensitivity:      DefaultSensitivity,
		Curve:            Concave,
		Direction:        Increasing,
		Interpolation:    Spline,
		PolynomialDegree: DefaultPolynomialDegree,
	}
}

func (c Config) validate() error {
	if math.IsNaN(c.Sensitivity) || c.Sensitivity < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSensitivity, c.Sensitivity)
	}
	if !c.Curve.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidCurve, c.Curve)
	}
	if !c.Direction.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidDirection, c.Direction)
	}
	if c.Smoother == nil && !c.Interpolation.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidInterpolation, c.Interpolation)
	}
	return nil
}

func (c Config) smoother() smooth.Smoother {
	if c.Smoother != nil {
		return c.Smoother
	}
	s, err := smooth.New(c.Interpolation, c.PolynomialDegree)
	if err != nil {
		// validate has already rejected unknown methods.
		panic(err)
	}
	return s
}

func validateCurve(x, y []float64) error {
	if len(x) == 0 || len(y) == 0 {
		return ErrEmptyCurve
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, len(x))
	}
	return nil
}
