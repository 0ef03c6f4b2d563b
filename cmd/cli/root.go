package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bacalhau-project/governor/cmd/cli/limits"
	"github.com/bacalhau-project/governor/cmd/cli/optimize"
	"github.com/bacalhau-project/governor/cmd/cli/serve"
	"github.com/bacalhau-project/governor/cmd/cli/throttle"
	"github.com/bacalhau-project/governor/cmd/cli/usage"
	"github.com/bacalhau-project/governor/cmd/cli/version"
	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/cmd/util/flags"
	"github.com/bacalhau-project/governor/pkg/config"
	"github.com/bacalhau-project/governor/pkg/logger"
	"github.com/bacalhau-project/governor/pkg/system"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

const cleanupTimeout = 10 * time.Second

type RootOptions struct {
	ConfigPaths []string
	LogMode     logger.LogMode
	LogLevel    string
}

func NewRootCmd() *cobra.Command {
	opts := &RootOptions{LogMode: logger.LogModeDefault}

	rootCmd := &cobra.Command{
		Use:           "governor",
		Short:         "Resource governor",
		Long:          `Allocate, monitor and optimize compute resources across pluggable providers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(telemetry.NewDetachedContext(cmd.Context()), cleanupTimeout)
			defer cancel()
			return util.GetCleanupManager(cmd.Context()).Cleanup(ctx)
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&opts.ConfigPaths, "config", nil,
		"Path to a YAML or JSON config file. May be repeated, later files override earlier ones.")
	rootCmd.PersistentFlags().Var(flags.LoggingFlag(&opts.LogMode), "log-mode",
		`Log format: 'default','json','combined','event'`)
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		`Log level: 'trace','debug','info','warn','error'`)

	rootCmd.AddCommand(
		limits.NewCmd(),
		usage.NewCmd(),
		throttle.NewCmd(),
		optimize.NewCmd(),
		serve.NewCmd(),
		version.NewCmd(),
	)
	return rootCmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(
		config.WithPaths(o.ConfigPaths...),
		config.WithFlags(map[string]*pflag.Flag{
			"Logging.Mode":  cmd.Flags().Lookup("log-mode"),
			"Logging.Level": cmd.Flags().Lookup("log-level"),
		}),
	)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mode, err := logger.ParseLogMode(cfg.Logging.Mode)
	if err != nil {
		return err
	}
	level, err := logger.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger.ConfigureLogging(mode)
	logger.SetLevel(level)

	ctx := cmd.Context()
	ctx = context.WithValue(ctx, util.SystemManagerKey, system.NewCleanupManager())
	ctx = context.WithValue(ctx, util.ConfigKey, cfg)
	cmd.SetContext(ctx)
	return nil
}

func Execute(ctx context.Context) {
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(ctx, util.ShutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		util.Fatal(rootCmd, err, 1)
	}
}
