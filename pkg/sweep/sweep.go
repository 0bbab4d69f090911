package sweep

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/runningwild/kneedle/pkg/config"
	"github.com/runningwild/kneedle/pkg/knee"
)

// Evaluator measures the metric for one value of the swept variable.
type Evaluator interface {
	Evaluate(ctx context.Context, value int) (float64, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, value int) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, value int) (float64, error) {
	return f(ctx, value)
}

// Entry is one measured point of the sweep.
type Entry struct {
	Value  int     `json:"value"`
	Metric float64 `json:"metric"`
}

type Sweeper struct {
	eval      Evaluator
	sweep     config.Sweep
	detection knee.Config
}

func New(eval Evaluator, sweep config.Sweep, detection knee.Config) *Sweeper {
	return &Sweeper{
		eval:      eval,
		sweep:     sweep,
		detection: detection,
	}
}

// Run evaluates every step in order and locates the knee of metric vs value.
// On error the entries measured so far are returned with it.
func (s *Sweeper) Run(ctx context.Context) ([]Entry, *knee.Locator, error) {
	steps, err := s.sweep.Steps()
	if err != nil {
		return nil, nil, err
	}
	name := s.sweep.Variable
	if name == "" {
		name = "value"
	}
	log.WithField("variable", name).Infof("Sweeping %d values to find the knee", len(steps))

	results := make([]Entry, 0, len(steps))
	for i, val := range steps {
		if err := ctx.Err(); err != nil {
			return results, nil, err
		}

		metric, err := s.eval.Evaluate(ctx, val)
		if err != nil {
			return results, nil, fmt.Errorf("%s=%d: %w", name, val, err)
		}

		log.WithFields(log.Fields{
			"step":   fmt.Sprintf("%d/%d", i+1, len(steps)),
			name:     val,
			"metric": metric,
		}).Info("Measured")

		results = append(results, Entry{Value: val, Metric: metric})
	}

	x := make([]float64, len(results))
	y := make([]float64, len(results))
	for i, e := range results {
		x[i], y[i] = float64(e.Value), e.Metric
	}
	l, err := knee.New(x, y, s.detection)
	if err != nil {
		return results, nil, err
	}
	return results, l, nil
}
