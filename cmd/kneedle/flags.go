package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runningwild/kneedle/pkg/config"
)

// detectionFlags overrides config.Detection. Only flags the user set are
// applied, so a config file keeps its values otherwise.
type detectionFlags struct {
	sensitivity   float64
	curve         string
	direction     string
	interpolation string
	online        bool
	degree        int
}

func (f *detectionFlags) register(fs *pflag.FlagSet) {
	d := config.DefaultDetection()
	fs.Float64VarP(&f.sensitivity, "sensitivity", "s", d.Sensitivity, "Sensitivity S; larger values wait longer before declaring a knee")
	fs.StringVar(&f.curve, "curve", d.Curve, "Curve shape: 'concave' or 'convex'")
	fs.StringVar(&f.direction, "direction", d.Direction, "Curve direction: 'increasing' or 'decreasing'")
	fs.StringVar(&f.interpolation, "interp", d.Interpolation, "Smoothing: 'spline' or 'polynomial'")
	fs.BoolVar(&f.online, "online", d.Online, "Keep scanning and report the last knee instead of the first")
	fs.IntVar(&f.degree, "degree", d.PolynomialDegree, "Polynomial degree for --interp polynomial")
}

func (f *detectionFlags) apply(cmd *cobra.Command, d *config.Detection) {
	fs := cmd.Flags()
	if fs.Changed("sensitivity") {
		d.Sensitivity = f.sensitivity
	}
	if fs.Changed("curve") {
		d.Curve = f.curve
	}
	if fs.Changed("direction") {
		d.Direction = f.direction
	}
	if fs.Changed("interp") {
		d.Interpolation = f.interpolation
	}
	if fs.Changed("online") {
		d.Online = f.online
	}
	if fs.Changed("degree") {
		d.PolynomialDegree = f.degree
	}
}

// inputFlags overrides config.Input.
type inputFlags struct {
	xColumn int
	yColumn int
	header  bool
	fixture string
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.xColumn, "x-col", 0, "Zero-based CSV column holding x")
	fs.IntVar(&f.yColumn, "y-col", 1, "Zero-based CSV column holding y")
	fs.BoolVar(&f.header, "header", false, "Skip the first CSV row")
	fs.StringVar(&f.fixture, "fixture", "", "Use a built-in curve instead of a file (see 'kneedle fixtures')")
}

func (f *inputFlags) apply(cmd *cobra.Command, in *config.Input) {
	fs := cmd.Flags()
	if fs.Changed("x-col") {
		in.XColumn = f.xColumn
	}
	if fs.Changed("y-col") {
		in.YColumn = f.yColumn
	}
	if fs.Changed("header") {
		in.Header = f.header
	}
}
