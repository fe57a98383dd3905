package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/dirmirror/internal/config"
	"github.com/tonimelisma/dirmirror/internal/logging"
	"github.com/tonimelisma/dirmirror/internal/mirror"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagExclude    []string
	flagVerbose    bool
	flagQuiet      bool
	flagJSON       bool
	flagWaitTime   int
	flagLogFile    string
	flagWatch      bool
	flagDryRun     bool
	flagOnce       bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Resolved

// skipConfigCommands lists commands that run without a resolved
// configuration. "config init" writes the file the others would read.
var skipConfigCommands = map[string]bool{
	"dirmirror config":      true,
	"dirmirror config init": true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirmirror [SOURCE REPLICA]",
		Short: "Keep a replica directory identical to a source directory",
		Long: `dirmirror periodically makes REPLICA an exact copy of SOURCE. Each pass
creates and refreshes replica entries from the source, then deletes replica
entries the source no longer has. Changes made inside the replica are
overwritten or removed.

SOURCE and REPLICA may also come from DIRMIRROR_SOURCE/DIRMIRROR_REPLICA or
the config file.`,
		Version: version,
		Args:    cobra.RangeArgs(0, 2),
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig(cmd, args)
		},
		RunE: runMirror,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringArrayVar(&flagExclude, "exclude", nil,
		"gitignore-style pattern hidden from the mirror (repeatable)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only print errors to the console")

	cmd.Flags().IntVar(&flagWaitTime, "wait-time", 0, "seconds between passes (default 60)")
	cmd.Flags().StringVar(&flagLogFile, "logfile", "", "log file path (default sync_log.log)")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "start a pass early when the source changes")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "log every action without modifying the replica")
	cmd.Flags().BoolVar(&flagOnce, "once", false, "run a single pass and exit")

	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newConfigCmd())

	// Accept --wait_time alongside --wait-time, and so for every flag.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	return cmd
}

// normalizeFlagName maps underscores to hyphens in flag names.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in resolvedCfg. Only flags the user
// explicitly set are passed on, so an absent flag never masks the file.
func loadConfig(cmd *cobra.Command, args []string) error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		Exclude:    flagExclude,
	}

	if len(args) > 0 {
		cli.Source = &args[0]
	}

	if len(args) > 1 {
		cli.Replica = &args[1]
	}

	flags := cmd.Flags()

	if flags.Changed("wait-time") {
		cli.WaitTime = &flagWaitTime
	}

	if flags.Changed("logfile") {
		cli.LogFile = &flagLogFile
	}

	if flags.Changed("watch") {
		cli.Watch = &flagWatch
	}

	if flags.Changed("dry-run") {
		cli.DryRun = &flagDryRun
	}

	env := config.ReadEnvOverrides(bootstrapLogger())

	resolved, err := config.Resolve(env, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// bootstrapLogger is the console-only logger used before configuration is
// resolved. Debug output appears only with --verbose.
func bootstrapLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}

	logger, _, _ := logging.New(logging.Options{Level: level, Quiet: flagQuiet})

	return logger
}

// buildLogger creates the process logger from the resolved config and CLI
// flags. Config-file log level provides the baseline; --verbose overrides
// it, and --quiet silences the console below error. withFile adds the log
// file; read-only commands leave it alone.
func buildLogger(cfg *config.Resolved, withFile bool) (*slog.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	opts := logging.Options{Level: level, Quiet: flagQuiet}
	if withFile {
		opts.FilePath = cfg.LogFile
	}

	return logging.New(opts)
}

// runMirror is the root command: validate the roots, take the replica lock,
// then run passes until interrupted (or once, with --once).
func runMirror(cmd *cobra.Command, _ []string) error {
	cfg := resolvedCfg

	logger, closeLog, err := buildLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	fsys := mirror.NewOSFS()

	if err := mirror.PrepareRoots(fsys, cfg.Source, cfg.Replica, logger); err != nil {
		return err
	}

	release, err := acquireLock(cfg.LockFile)
	if err != nil {
		return err
	}
	defer release()

	filter := mirror.NewFilter(cfg.Exclude)

	m := mirror.New(fsys, mirror.Options{
		Filter:        filter,
		ModTimeWindow: cfg.ModTimeWindow,
		DryRun:        cfg.DryRun,
		Logger:        logger,
	})

	runnerCfg := mirror.RunnerConfig{
		SourceRoot:  cfg.Source,
		ReplicaRoot: cfg.Replica,
		Interval:    cfg.Interval,
		Logger:      logger,
	}

	if cfg.DryRun {
		logger.Warn("dry run: the replica will not be modified")
	}

	if len(cfg.Exclude) > 0 {
		logger.Info("excluding paths", slog.Any("patterns", filter.Patterns()))
	}

	if flagOnce {
		return mirror.NewRunner(m, runnerCfg).RunPass()
	}

	ctx, stopSignals := shutdownContext(cmd.Context(), logger)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watch {
		w := mirror.NewWatcher(cfg.Source, filter, cfg.WatchDebounce, logger)
		runnerCfg.Trigger = w.Trigger()

		// A dead watcher only loses the early trigger; interval passes go on.
		g.Go(func() error {
			if err := w.Watch(gctx); err != nil {
				logger.Warn("source watcher stopped, continuing on interval only",
					slog.String("error", err.Error()))
			}

			return nil
		})
	}

	runner := mirror.NewRunner(m, runnerCfg)
	g.Go(func() error { return runner.Run(gctx) })

	return g.Wait()
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
