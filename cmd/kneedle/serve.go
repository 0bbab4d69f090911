package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/runningwild/kneedle/pkg/agent"
	"github.com/runningwild/kneedle/pkg/cache"
	"github.com/runningwild/kneedle/pkg/cluster"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		listen    string
		redisAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a kneedle agent over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if cmd.Flags().Changed("redis") {
				cfg.Server.RedisAddr = redisAddr
			}
			g.maybeWriteConfig(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var c cache.Cache = cache.NewMemory()
			if cfg.Server.RedisAddr != "" {
				rc, err := cache.NewRedis(ctx, cfg.Server.RedisAddr)
				if err != nil {
					return fmt.Errorf("connect to redis at %s: %w", cfg.Server.RedisAddr, err)
				}
				defer rc.Close()
				c = rc
				log.WithField("redis", cfg.Server.RedisAddr).Info("Using Redis result cache")
			}
			return agent.NewServer(c, cfg.Server.CacheTTL).ListenAndServe(ctx, cfg.Server.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":9000", "Address to listen on")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared result cache (default in-memory)")
	return cmd
}

func newRemoteCmd(g *globals) *cobra.Command {
	var (
		det      detectionFlags
		in       inputFlags
		nodes    string
		parallel int
		auto     bool
	)
	cmd := &cobra.Command{
		Use:   "remote --nodes host1:9000,host2:9000 file.csv [file.csv ...]",
		Short: "Locate knees on remote agents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			det.apply(cmd, &cfg.Detection)
			in.apply(cmd, &cfg.Input)
			if nodes != "" {
				cfg.Cluster.Nodes = strings.Split(nodes, ",")
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Cluster.Parallel = parallel
			}
			g.maybeWriteConfig(cmd, cfg)

			if len(cfg.Cluster.Nodes) == 0 {
				return fmt.Errorf("no agent nodes: pass --nodes or set cluster.nodes")
			}
			if _, err := cfg.Detection.KneeConfig(); err != nil {
				return err
			}

			reqs := make([]agent.LocateRequest, len(args))
			for i, p := range args {
				x, y, err := loadCurve(p, "", cfg.Input)
				if err != nil {
					return err
				}
				reqs[i] = agent.LocateRequest{X: x, Y: y, Detection: cfg.Detection, Auto: auto}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Sending %d curves to %d nodes...\n", len(reqs), len(cfg.Cluster.Nodes))
			results, err := cluster.New(cfg.Cluster.Nodes, cfg.Cluster.Parallel).Locate(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, r := range results {
				if r.Knee == nil {
					fmt.Fprintf(w, "%s: no knee (%s %s)\n", args[i], r.Curve, r.Direction)
					continue
				}
				fmt.Fprintf(w, "%s: knee x=%g y=%g (%s %s)\n", args[i], *r.Knee, *r.KneeY, r.Curve, r.Direction)
			}
			return nil
		},
	}
	det.register(cmd.Flags())
	in.register(cmd.Flags())
	cmd.Flags().StringVar(&nodes, "nodes", "", "Comma-separated list of agents (e.g. host1:9000)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Requests in flight at once")
	cmd.Flags().BoolVar(&auto, "auto", false, "Let the agents infer curve and direction")
	return cmd
}
