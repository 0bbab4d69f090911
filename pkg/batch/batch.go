// Package batch runs the knee locator over many independent curves at once.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/runningwild/kneedle/pkg/knee"
)

// Curve is one input to Locate. Name only appears in errors.
type Curve struct {
	Name string
	X, Y []float64
}

// Locate runs each curve on its own goroutine, at most parallel at a time,
// and returns the locators in input order. The first error cancels the rest.
func Locate(ctx context.Context, curves []Curve, cfg knee.Config, parallel int) ([]*knee.Locator, error) {
	out := make([]*knee.Locator, len(curves))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, c := range curves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := knee.New(c.X, c.Y, cfg)
			if err != nil {
				return fmt.Errorf("curve %d (%s): %w", i, c.Name, err)
			}
			out[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
