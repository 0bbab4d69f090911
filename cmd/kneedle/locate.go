package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runningwild/kneedle/pkg/analyze"
	"github.com/runningwild/kneedle/pkg/batch"
	"github.com/runningwild/kneedle/pkg/datagen"
	"github.com/runningwild/kneedle/pkg/knee"
)

func newLocateCmd(g *globals) *cobra.Command {
	var (
		det      detectionFlags
		in       inputFlags
		auto     bool
		jsonOut  bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "locate [file.csv ...]",
		Short: "Locate the knee of one or more curves",
		Long: "Reads x,y pairs from CSV files (or stdin with '-') and prints the knee of each.\n" +
			"Several files are processed concurrently.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			det.apply(cmd, &cfg.Detection)
			in.apply(cmd, &cfg.Input)
			if cmd.Flags().Changed("parallel") {
				cfg.Cluster.Parallel = parallel
			}
			g.maybeWriteConfig(cmd, cfg)

			kcfg, err := cfg.Detection.KneeConfig()
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 && in.fixture == "" && cfg.Input.Path != "" {
				paths = []string{cfg.Input.Path}
			}
			if len(paths) <= 1 {
				path := ""
				if len(paths) == 1 {
					path = paths[0]
				}
				x, y, err := loadCurve(path, in.fixture, cfg.Input)
				if err != nil {
					return err
				}
				var shape *analyze.Shape
				var l *knee.Locator
				if auto {
					var s analyze.Shape
					l, s, err = analyze.LocateAuto(x, y, kcfg)
					shape = &s
				} else {
					l, err = knee.New(x, y, kcfg)
				}
				if err != nil {
					return err
				}
				return printLocator(cmd.OutOrStdout(), "", l, shape, jsonOut)
			}

			if auto {
				return fmt.Errorf("--auto works on a single curve")
			}
			curves := make([]batch.Curve, len(paths))
			for i, p := range paths {
				x, y, err := loadCurve(p, "", cfg.Input)
				if err != nil {
					return err
				}
				curves[i] = batch.Curve{Name: p, X: x, Y: y}
			}
			locators, err := batch.Locate(cmd.Context(), curves, kcfg, cfg.Cluster.Parallel)
			if err != nil {
				return err
			}
			for i, l := range locators {
				if err := printLocator(cmd.OutOrStdout(), paths[i], l, nil, jsonOut); err != nil {
					return err
				}
			}
			return nil
		},
	}
	det.register(cmd.Flags())
	in.register(cmd.Flags())
	cmd.Flags().BoolVar(&auto, "auto", false, "Infer curve and direction from the data")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Curves located at once when several files are given")
	return cmd
}

func printLocator(w io.Writer, name string, l *knee.Locator, shape *analyze.Shape, jsonOut bool) error {
	res := l.Result()
	if jsonOut {
		out := struct {
			Name string `json:"name,omitempty"`
			knee.Result
		}{name, res}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if name != "" {
		fmt.Fprintf(w, "%s:\n", name)
	}
	if shape != nil {
		fmt.Fprintf(w, "Shape:       %s (confidence %.2f)\n", shape, shape.Confidence)
	}
	k, ok := l.Knee()
	if !ok {
		fmt.Fprintln(w, "No knee found.")
		return nil
	}
	ky, _ := l.KneeY()
	nk, _ := l.NormKnee()
	nky, _ := l.NormKneeY()
	fmt.Fprintf(w, "Knee:        x=%g y=%g\n", k, ky)
	fmt.Fprintf(w, "Normalized:  x=%.4f y=%.4f\n", nk, nky)
	if all := l.AllKnees(); len(all) > 1 {
		fmt.Fprintf(w, "All knees:   %v\n", all)
	}
	return nil
}

func newShapeCmd(g *globals) *cobra.Command {
	var (
		in        inputFlags
		tolerance float64
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "shape [file.csv]",
		Short: "Classify a curve and find its dominant linear region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			in.apply(cmd, &cfg.Input)
			path := cfg.Input.Path
			if len(args) == 1 {
				path = args[0]
			}
			x, y, err := loadCurve(path, in.fixture, cfg.Input)
			if err != nil {
				return err
			}

			s, err := analyze.ClassifyShape(x, y)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Shape:       %s\n", s)
			fmt.Fprintf(w, "Trend:       y = %.4g*x + %.4g\n", s.Slope, s.Intercept)
			fmt.Fprintf(w, "Bow:         %.4g\n", s.Bow)
			fmt.Fprintf(w, "Confidence:  %.2f\n", s.Confidence)

			r, err := analyze.DominantLine(x, y, tolerance, seed)
			if err != nil {
				return err
			}
			if r.Inliers == 0 {
				fmt.Fprintln(w, "No linear region found.")
				return nil
			}
			fmt.Fprintf(w, "Linear:      x in [%g, %g], y = %.4g*x + %.4g (%d points, %.0f%%)\n",
				r.StartX, r.EndX, r.Slope, r.Intercept, r.Inliers, r.Coverage*100)
			return nil
		},
	}
	in.register(cmd.Flags())
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0.05, "Relative residual allowed for the linear region")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the linear region search")
	return cmd
}

func newFixturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures [name]",
		Short: "List built-in curves, or print one as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, n := range datagen.Names() {
					fmt.Fprintln(w, n)
				}
				return nil
			}
			x, y, err := datagen.ByName(args[0])
			if err != nil {
				return err
			}
			for i := range x {
				fmt.Fprintf(w, "%g,%g\n", x[i], y[i])
			}
			return nil
		},
	}
}
