// Package stats turns latency samples into curves the knee locator can read.
package stats

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/runningwild/kneedle/pkg/knee"
)

const (
	minTrackable = 1                // 1 us
	maxTrackable = 60 * 1000 * 1000 // 60 s in us
	sigFigs      = 3
)

// Histogram is a mergeable latency histogram in microseconds. Values outside
// [1us, 60s] are clamped instead of dropped.
type Histogram struct {
	h *hdrhistogram.Histogram
}

func NewHistogram() *Histogram {
	return &Histogram{h: hdrhistogram.New(minTrackable, maxTrackable, sigFigs)}
}

// Record records a latency in microseconds. Negative values are ignored.
func (h *Histogram) Record(valUs int64) {
	if valUs < 0 {
		return
	}
	valUs = min(max(valUs, minTrackable), maxTrackable)
	// The value is clamped into range, so RecordValue cannot fail.
	_ = h.h.RecordValue(valUs)
}

func (h *Histogram) RecordDuration(d time.Duration) {
	h.Record(d.Microseconds())
}

func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	h.h.Merge(other.h)
}

func (h *Histogram) Count() int64 { return h.h.TotalCount() }

func (h *Histogram) Mean() float64 { return h.h.Mean() }

func (h *Histogram) Max() int64 { return h.h.Max() }

// ValueAtQuantile takes q in [0, 1].
func (h *Histogram) ValueAtQuantile(q float64) int64 {
	if h.h.TotalCount() == 0 {
		return 0
	}
	return h.h.ValueAtQuantile(q * 100)
}

// DefaultQuantiles is p50 through p99 in steps of one percent. Convex
// increasing curves are reversed in y but not in x during detection, so the
// quantiles should be evenly spaced.
func DefaultQuantiles() []float64 {
	q := make([]float64, 0, 50)
	for p := 50; p <= 99; p++ {
		q = append(q, float64(p)/100)
	}
	return q
}

// QuantileCurve returns x as quantiles in percent and y as the latency at each.
// The result is convex and increasing; its elbow is where the tail starts.
func (h *Histogram) QuantileCurve(quantiles []float64) (x, y []float64, err error) {
	if h.h.TotalCount() == 0 {
		return nil, nil, fmt.Errorf("histogram is empty")
	}
	x = make([]float64, len(quantiles))
	y = make([]float64, len(quantiles))
	prev := -1.0
	for i, q := range quantiles {
		if q < 0 || q > 1 {
			return nil, nil, fmt.Errorf("quantile %v outside [0, 1]", q)
		}
		if q <= prev {
			return nil, nil, fmt.Errorf("quantiles must be strictly increasing (%v after %v)", q, prev)
		}
		prev = q
		x[i] = q * 100
		y[i] = float64(h.ValueAtQuantile(q))
	}
	return x, y, nil
}

// TailElbow locates the elbow of the quantile curve: the quantile, in
// percent, past which latency grows disproportionately. sensitivity and
// online are passed to the locator; the shape is always convex increasing.
func (h *Histogram) TailElbow(quantiles []float64, sensitivity float64, online bool) (*knee.Locator, error) {
	x, y, err := h.QuantileCurve(quantiles)
	if err != nil {
		return nil, err
	}
	cfg := knee.DefaultConfig()
	cfg.Curve, cfg.Direction = knee.Convex, knee.Increasing
	cfg.Sensitivity, cfg.Online = sensitivity, online
	return knee.New(x, y, cfg)
}
