package analyze

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// LinearRegion is the longest stretch of a curve that a single line explains.
type LinearRegion struct {
	Slope     float64
	Intercept float64
	Coverage  float64 // fraction of points that are inliers
	StartX    float64
	EndX      float64
	Inliers   int
}

const regionIterations = 500

// DominantLine uses RANSAC to find the line that explains the most points
// within a relative tolerance (0.05 for 5%). Before a knee this is usually
// the linear growth phase.
func DominantLine(x, y []float64, tolerance float64, seed int64) (LinearRegion, error) {
	if err := validate(x, y); err != nil {
		return LinearRegion{}, err
	}
	n := len(x)
	r := rand.New(rand.NewSource(seed))

	var best []int
	for i := 0; i < regionIterations; i++ {
		// 1. Pick two points
		a, b := r.Intn(n), r.Intn(n)
		if a == b || math.Abs(x[b]-x[a]) < 1e-9 {
			continue
		}

		// 2. Model
		m := (y[b] - y[a]) / (x[b] - x[a])
		c := y[a] - m*x[a]

		// 3. Inliers
		inliers := make([]int, 0, n)
		for j := range x {
			if residual(m*x[j]+c, y[j]) <= tolerance {
				inliers = append(inliers, j)
			}
		}

		// 4. Keep the best
		if len(inliers) > len(best) {
			best = inliers
		}
	}
	if len(best) < 2 {
		return LinearRegion{}, nil
	}

	// 5. Refine with least squares over the inliers
	xs := make([]float64, len(best))
	ys := make([]float64, len(best))
	for k, j := range best {
		xs[k], ys[k] = x[j], y[j]
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	lo, hi := xs[0], xs[0]
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return LinearRegion{
		Slope:     slope,
		Intercept: intercept,
		Coverage:  float64(len(best)) / float64(n),
		StartX:    lo,
		EndX:      hi,
		Inliers:   len(best),
	}, nil
}

// residual is relative to the observation, or absolute near zero.
func residual(predicted, observed float64) float64 {
	if math.Abs(observed) < 1e-9 {
		return math.Abs(predicted - observed)
	}
	return math.Abs(predicted-observed) / math.Abs(observed)
}
