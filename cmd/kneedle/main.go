package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/runningwild/kneedle/pkg/config"
)

// globals holds the flags shared by every subcommand.
type globals struct {
	configFile  string
	writeConfig string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "kneedle",
		Short:        "Find the knee or elbow of sampled curves",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Path to a YAML configuration file; flags override its values")
	pf.StringVar(&g.writeConfig, "write-config", "", "Save the effective configuration to this YAML file")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newLocateCmd(g),
		newShapeCmd(g),
		newSweepCmd(g),
		newLatencyCmd(g),
		newServeCmd(g),
		newRemoteCmd(g),
		newFixturesCmd(),
	)
	return root
}

// loadConfig reads --config if given, otherwise starts from the defaults.
func (g *globals) loadConfig() (*config.Config, error) {
	if g.configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return cfg, nil
}

// maybeWriteConfig saves cfg when --write-config is set. Failures only warn.
func (g *globals) maybeWriteConfig(cmd *cobra.Command, cfg *config.Config) {
	if g.writeConfig == "" {
		return
	}
	if err := cfg.Save(g.writeConfig); err != nil {
		log.WithError(err).Warn("Failed to write config file")
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Configuration written to %s\n", g.writeConfig)
}
