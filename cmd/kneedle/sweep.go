package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/runningwild/kneedle/pkg/sweep"
)

func newSweepCmd(g *globals) *cobra.Command {
	var (
		det     detectionFlags
		varName string
		minVal  int
		maxVal  int
		stepVal int
		values  []int
		timeout time.Duration
		report  string
	)
	cmd := &cobra.Command{
		Use:   "sweep [flags] -- command [args...]",
		Short: "Run a command over a range of values and find the knee of its output",
		Long: "Runs the command once per value, replacing every {} in its arguments with the\n" +
			"value. The last number the command prints is the metric.\n\n" +
			"  kneedle sweep --var workers --min 1 --max 32 -- ./bench -j {}",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			det.apply(cmd, &cfg.Detection)
			fs := cmd.Flags()
			if fs.Changed("var") {
				cfg.Sweep.Variable = varName
			}
			if fs.Changed("min") || fs.Changed("max") || (len(cfg.Sweep.Range) == 0 && len(cfg.Sweep.Values) == 0) {
				cfg.Sweep.Range = []int{minVal, maxVal}
				cfg.Sweep.Values = nil
			}
			if fs.Changed("step") {
				cfg.Sweep.Step = stepVal
			}
			if fs.Changed("values") {
				cfg.Sweep.Values = values
			}
			if fs.Changed("timeout") {
				cfg.Sweep.Timeout = timeout
			}
			if len(args) > 0 {
				cfg.Sweep.Command = args
			}
			g.maybeWriteConfig(cmd, cfg)

			if len(cfg.Sweep.Command) == 0 {
				return fmt.Errorf("no command to sweep: pass one after -- or set sweep.command")
			}
			kcfg, err := cfg.Detection.KneeConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			eval := sweep.CommandEvaluator{Args: cfg.Sweep.Command, Timeout: cfg.Sweep.Timeout}
			history, l, err := sweep.New(eval, cfg.Sweep, kcfg).Run(ctx)
			if report != "" && len(history) > 0 {
				writeReport(cmd, report, history)
			}
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n>>> Sweep Complete <<<\n")
			k, ok := l.Knee()
			if !ok {
				fmt.Fprintln(w, "Could not identify a distinct knee.")
				return nil
			}
			ky, _ := l.KneeY()
			fmt.Fprintf(w, "Knee found at: %s=%g (metric: %g)\n", variableName(cfg.Sweep.Variable), k, ky)
			return nil
		},
	}
	det.register(cmd.Flags())
	fs := cmd.Flags()
	fs.StringVar(&varName, "var", "value", "Name of the swept variable, for output only")
	fs.IntVar(&minVal, "min", 1, "Minimum value")
	fs.IntVar(&maxVal, "max", 32, "Maximum value")
	fs.IntVar(&stepVal, "step", 1, "Step between values")
	fs.IntSliceVar(&values, "values", nil, "Explicit values instead of a range")
	fs.DurationVar(&timeout, "timeout", 0, "Timeout for each run of the command")
	fs.StringVar(&report, "report", "", "Write the measured values to a JSON file")
	return cmd
}

func variableName(v string) string {
	if v == "" {
		return "value"
	}
	return v
}

func writeReport(cmd *cobra.Command, path string, history []sweep.Entry) {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to marshal report: %v\n", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to write report: %v\n", err)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
}
