package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ifchanged/internal/config"
	"ifchanged/internal/engine"
	"ifchanged/internal/executor"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	force     bool
	silent    bool

	// exitCode is the process exit status set by the run/check commands.
	exitCode int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

var rootCmd = &cobra.Command{
	Use:   "ifchanged",
	Short: "Run a command only when tracked files changed",
	Long: `ifchanged computes a content fingerprint of a configured file set and
compares it against the fingerprint recorded on the previous run. When
the set changed, the configured command is executed and a new baseline
is recorded; otherwise nothing happens.

It is meant to sit in front of a build step so redundant rebuilds are
skipped even when an outer orchestrator triggers the step every time.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect changes and run the configured command if needed",
	Long: `Run enumerates the configured include/exclude patterns, hashes every
tracked file, and compares the result against the persisted snapshot.
On a change the command runs with inherited stdio in the config's base
directory and the new snapshot is recorded; otherwise the run is a no-op.

When the CI environment variable is set, hashing and comparison are
skipped entirely and the command runs unconditionally.`,
	RunE: runRun,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether a run would execute, without side effects",
	Long: `Check performs the same enumeration, hashing and comparison as run but
never executes the command and never writes the snapshot store.

Exit code 0 means a run would be skipped; exit code 1 means it would
execute the command.`,
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ifchanged %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ifchanged.yaml discovered upward from the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Shared run/check flags
	for _, cmd := range []*cobra.Command{runCmd, checkCmd} {
		cmd.Flags().BoolVar(&force, "force", false, "skip comparison and treat the file set as changed")
		cmd.Flags().BoolVar(&silent, "silent", false, "suppress status output")
	}

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	eng := engine.New(cfg, executor.NewShell(), logger)

	code, err := eng.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	exitCode = code
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	eng := engine.New(cfg, executor.NewShell(), logger)

	changed, err := eng.Check(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		return err
	}

	if changed {
		logger.Info("changes detected, a run would execute the command")
		exitCode = 1
	} else {
		logger.Info("no changes detected, a run would be skipped")
	}
	return nil
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		configPath, err = config.Discover(wd)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("loading configuration", "path", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// CLI flags win over the config file.
	cfg.Force = cfg.Force || force
	cfg.Silent = cfg.Silent || silent

	logger.Debug("configuration loaded",
		"base_dir", cfg.BaseDir,
		"include", cfg.Include,
		"exclude", cfg.Exclude,
		"store", cfg.StoreFilePath())

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
