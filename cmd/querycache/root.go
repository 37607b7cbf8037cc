package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goforj/querycache/internal/config"
)

// app carries state resolved by the root command for its subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "querycache",
		Short:         "Memoize query results and dispatch tagged records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML or TOML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newDemoCmd(a),
		newDispatchCmd(a),
		newQueryCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.cfg = config.Default()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.logger = newLogger(a.cfg.Log, cmd.ErrOrStderr())
	return nil
}
