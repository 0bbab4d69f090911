package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runningwild/kneedle/pkg/stats"
)

func newLatencyCmd(g *globals) *cobra.Command {
	var (
		sensitivity float64
		online      bool
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "latency [samples.txt]",
		Short: "Find where the latency tail starts",
		Long: "Reads one latency per line (microseconds, or a duration such as 1.5ms) and\n" +
			"locates the elbow of the p50..p99 quantile curve.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sensitivity") {
				cfg.Detection.Sensitivity = sensitivity
			}
			if cmd.Flags().Changed("online") {
				cfg.Detection.Online = online
			}
			g.maybeWriteConfig(cmd, cfg)

			var r io.Reader = os.Stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			h, err := stats.ReadSamples(r)
			if err != nil {
				return err
			}
			l, err := h.TailElbow(stats.DefaultQuantiles(), cfg.Detection.Sensitivity, cfg.Detection.Online)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(l.Result(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(data))
				return nil
			}
			us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
			fmt.Fprintf(w, "Samples:  %d\n", h.Count())
			fmt.Fprintf(w, "Mean:     %v\n", time.Duration(h.Mean()*float64(time.Microsecond)))
			fmt.Fprintf(w, "P50:      %v\n", us(h.ValueAtQuantile(0.50)))
			fmt.Fprintf(w, "P99:      %v\n", us(h.ValueAtQuantile(0.99)))
			fmt.Fprintf(w, "Max:      %v\n", us(h.Max()))
			q, ok := l.Elbow()
			if !ok {
				fmt.Fprintln(w, "No tail elbow found.")
				return nil
			}
			v, _ := l.ElbowY()
			fmt.Fprintf(w, "Tail starts at p%g (%v)\n", q, us(int64(v)))
			return nil
		},
	}
	d := cmd.Flags()
	d.Float64VarP(&sensitivity, "sensitivity", "s", 1, "Sensitivity S")
	d.BoolVar(&online, "online", false, "Report the last elbow instead of the first")
	d.BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}
