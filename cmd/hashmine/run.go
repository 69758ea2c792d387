package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/najoast/hashmine/bootstrap"
	"github.com/najoast/hashmine/config"
	"github.com/najoast/hashmine/coordinator"
	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/logging"
)

type runFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	maxBackoff time.Duration
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <caveInfoPath> <numberOfHashes> <numberOfWizards> <numberOfMiners>",
		Short: "Solve every room of the mine",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config", "", "configuration file, watched for log level and backoff changes")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")
	cmd.Flags().DurationVar(&flags.maxBackoff, "max-backoff", coordinator.DefaultMaxBackoff, "upper bound of the random pause between coordinator polls")

	return cmd
}

func parseCount(name, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", name, val)
	}
	return n, nil
}

func buildConfig(cmd *cobra.Command, args []string, flags *runFlags) (*config.Config, error) {
	cfg, err := config.NewLoader().Load(flags.configFile)
	if err != nil {
		return nil, err
	}

	cfg.Mine.Input = args[0]
	if cfg.Mine.Hashes, err = parseCount("numberOfHashes", args[1]); err != nil {
		return nil, err
	}
	if cfg.Actors.Coordinators, err = parseCount("numberOfWizards", args[2]); err != nil {
		return nil, err
	}
	if cfg.Actors.Workers, err = parseCount("numberOfMiners", args[3]); err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = config.LogLevel(flags.logLevel)
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if cmd.Flags().Changed("max-backoff") {
		cfg.Actors.MaxBackoff = config.Duration(flags.maxBackoff)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMine(cmd *cobra.Command, args []string, flags *runFlags) error {
	cfg, err := buildConfig(cmd, args, flags)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	logger, err := logging.New(cfg.Log, logging.NewRunID())
	if err != nil {
		return err
	}
	defer logger.Close()

	app, err := bootstrap.NewApplication(bootstrap.Options{
		Config:        cfg,
		ConfigFile:    flags.configFile,
		Logger:        logger,
		HandleSignals: true,
	})
	if err != nil {
		return err
	}

	outcome, err := app.Run(cmd.Context())
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	switch outcome.Kind {
	case core.OutcomeCompleted:
		fmt.Fprintln(cmd.OutOrStdout(), "All rooms have been solved!")
		return nil
	case core.OutcomeFailed:
		var violation *coordinator.ViolationError
		if errors.As(outcome.Err, &violation) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Received incorrect parent/node or hash! Magic barrier exploded.")
		}
		logger.Error("run failed", zap.Stringer("outcome", outcome))
	}
	return &exitError{code: outcome.ExitCode(), err: fmt.Errorf("run %s", outcome)}
}
