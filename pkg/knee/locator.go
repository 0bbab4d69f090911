package knee

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// Locator holds one detection run: the knee, every candidate found on the
// way, and the intermediate curves.
type Locator struct {
	cfg Config

	x, y     []float64
	smoothed []float64
	xNorm    []float64
	yNorm    []float64
	xDiff    []float64
	yDiff    []float64
	maxima   []int
	minima   []int
	tmx      []float64

	knee    candidate
	found   bool
	history []candidate
}

// New runs detection over x and y. x must be sorted ascending; it is not
// re-sorted. The inputs are copied.
func New(x, y []float64, cfg Config) (*Locator, error) {
	if err := validateCurve(x, y); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := &Locator{
		cfg: cfg,
		x:   slices.Clone(x),
		y:   slices.Clone(y),
	}

	// 1. Smooth
	l.smoothed = cfg.smoother().Smooth(l.x, l.y)
	if len(l.smoothed) != len(l.y) {
		log.WithFields(log.Fields{
			"points":   len(l.y),
			"smoothed": len(l.smoothed),
		}).Debug("smoother returned the wrong length, using raw y")
		l.smoothed = slices.Clone(l.y)
	}

	// 2. Normalize to [0, 1]
	l.xNorm = normalize(l.x)
	l.yNorm = orient(normalize(l.smoothed), cfg.Direction, cfg.Curve)

	// 3. Difference curve, measured against the diagonal
	l.xDiff = slices.Clone(l.xNorm)
	l.yDiff = difference(l.xNorm, l.yNorm)

	// 4. Extrema and the drop each maximum needs to be confirmed
	l.maxima = localMaxima(l.yDiff)
	l.minima = localMinima(l.yDiff)
	l.tmx = thresholds(l.yDiff, l.maxima, cfg.Sensitivity, meanAbsDiff(l.xNorm))

	// 5. Scan
	st := scan(newScanInput(l.x, l.yDiff, l.maxima, l.minima, l.tmx, cfg))
	l.knee, l.found, l.history = st.knee, st.found, st.history

	log.WithFields(log.Fields{
		"points":     len(l.x),
		"curve":      cfg.Curve,
		"direction":  cfg.Direction,
		"online":     cfg.Online,
		"maxima":     len(l.maxima),
		"candidates": len(l.history),
		"found":      l.found,
	}).Debug("knee scan complete")

	return l, nil
}

// Locate runs detection with the default settings.
func Locate(x, y []float64) (*Locator, error) {
	return New(x, y, DefaultConfig())
}

// LocateShape is Locate for a known shape.
func LocateShape(x, y []float64, c CurveType, d Direction) (*Locator, error) {
	cfg := DefaultConfig()
	cfg.Curve, cfg.Direction = c, d
	return New(x, y, cfg)
}

func (l *Locator) Config() Config       { return l.cfg }
func (l *Locator) Curve() CurveType     { return l.cfg.Curve }
func (l *Locator) Direction() Direction { return l.cfg.Direction }
func (l *Locator) Found() bool          { return l.found }
func (l *Locator) Sensitivity() float64 { return l.cfg.Sensitivity }

// Knee is the x of the selected knee.
func (l *Locator) Knee() (float64, bool) {
	if !l.found {
		return 0, false
	}
	return l.x[l.knee.raw], true
}

// NormKnee is the knee in normalized x.
func (l *Locator) NormKnee() (float64, bool) {
	if !l.found {
		return 0, false
	}
	return l.xNorm[l.knee.canonical], true
}

// KneeY is the raw y at the knee.
func (l *Locator) KneeY() (float64, bool) {
	if !l.found {
		return 0, false
	}
	return l.y[l.knee.raw], true
}

// NormKneeY is the oriented, normalized y at the knee. For shapes that are
// reversed during orientation it is not the same point as KneeY.
func (l *Locator) NormKneeY() (float64, bool) {
	if !l.found {
		return 0, false
	}
	return l.yNorm[l.knee.canonical], true
}

func (l *Locator) Elbow() (float64, bool)      { return l.Knee() }
func (l *Locator) NormElbow() (float64, bool)  { return l.NormKnee() }
func (l *Locator) ElbowY() (float64, bool)     { return l.KneeY() }
func (l *Locator) NormElbowY() (float64, bool) { return l.NormKneeY() }

// AllKnees lists every distinct knee x in discovery order. Offline runs
// hold at most one.
func (l *Locator) AllKnees() []float64 {
	return l.collect(func(c candidate) float64 { return l.x[c.raw] })
}

func (l *Locator) AllNormKnees() []float64 {
	return l.collect(func(c candidate) float64 { return l.xNorm[c.canonical] })
}

func (l *Locator) AllKneesY() []float64 {
	return l.collect(func(c candidate) float64 { return l.y[c.raw] })
}

func (l *Locator) AllNormKneesY() []float64 {
	return l.collect(func(c candidate) float64 { return l.yNorm[c.canonical] })
}

func (l *Locator) AllElbows() []float64      { return l.AllKnees() }
func (l *Locator) AllNormElbows() []float64  { return l.AllNormKnees() }
func (l *Locator) AllElbowsY() []float64     { return l.AllKneesY() }
func (l *Locator) AllNormElbowsY() []float64 { return l.AllNormKneesY() }

func (l *Locator) collect(f func(candidate) float64) []float64 {
	out := make([]float64, len(l.history))
	for i, c := range l.history {
		out[i] = f(c)
	}
	return out
}

// Diagnostics. Each returns a copy.

func (l *Locator) X() []float64           { return slices.Clone(l.x) }
func (l *Locator) Y() []float64           { return slices.Clone(l.y) }
func (l *Locator) Smoothed() []float64    { return slices.Clone(l.smoothed) }
func (l *Locator) XNormalized() []float64 { return slices.Clone(l.xNorm) }
func (l *Locator) YNormalized() []float64 { return slices.Clone(l.yNorm) }
func (l *Locator) XDifference() []float64 { return slices.Clone(l.xDiff) }
func (l *Locator) YDifference() []float64 { return slices.Clone(l.yDiff) }
func (l *Locator) Maxima() []int          { return slices.Clone(l.maxima) }
func (l *Locator) Minima() []int          { return slices.Clone(l.minima) }
func (l *Locator) Thresholds() []float64  { return slices.Clone(l.tmx) }

// Result is a serializable snapshot of a run. Nil pointers mean no knee.
type Result struct {
	Curve         string    `json:"curve" yaml:"curve"`
	Direction     string    `json:"direction" yaml:"direction"`
	Online        bool      `json:"online" yaml:"online"`
	Sensitivity   float64   `json:"sensitivity" yaml:"sensitivity"`
	Knee          *float64  `json:"knee" yaml:"knee"`
	NormKnee      *float64  `json:"norm_knee" yaml:"norm_knee"`
	KneeY         *float64  `json:"knee_y" yaml:"knee_y"`
	NormKneeY     *float64  `json:"norm_knee_y" yaml:"norm_knee_y"`
	AllKnees      []float64 `json:"all_knees" yaml:"all_knees"`
	AllNormKnees  []float64 `json:"all_norm_knees" yaml:"all_norm_knees"`
	AllKneesY     []float64 `json:"all_knees_y" yaml:"all_knees_y"`
	AllNormKneesY []float64 `json:"all_norm_knees_y" yaml:"all_norm_knees_y"`
}

func (l *Locator) Result() Result {
	r := Result{
		Curve:         l.cfg.Curve.String(),
		Direction:     l.cfg.Direction.String(),
		Online:        l.cfg.Online,
		Sensitivity:   l.cfg.Sensitivity,
		AllKnees:      l.AllKnees(),
		AllNormKnees:  l.AllNormKnees(),
		AllKneesY:     l.AllKneesY(),
		AllNormKneesY: l.AllNormKneesY(),
	}
	r.Knee = ptr(l.Knee())
	r.NormKnee = ptr(l.NormKnee())
	r.KneeY = ptr(l.KneeY())
	r.NormKneeY = ptr(l.NormKneeY())
	return r
}

func ptr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
