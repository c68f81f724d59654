package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/plate-preprocess/internal/config"
	"github.com/ironsheep/plate-preprocess/internal/parallel"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	workers    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "plate-preprocess",
		Short: "License plate image preprocessing",
		Long: `plate-preprocess runs grayscale, blur, edge and threshold filters over
vehicle images and locates the candidate plate region.

Settings come from an optional YAML file, then PLATE_* environment
variables (e.g. PLATE_LOG_LEVEL=debug, PLATE_STAGES=grayscale,gaussian),
then command-line flags.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.IntVar(&g.workers, "workers", 0, fmt.Sprintf("filter worker goroutines (1-%d, 0 = default)", parallel.MaxWorkers))

	root.AddCommand(
		newProcessCmd(g),
		newDetectCmd(g),
		newServeCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadConfig merges file, environment and global flags. Command flags are
// applied by the caller before finishConfig.
func loadConfig(cmd *cobra.Command, g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}

	return cfg, nil
}

// finishConfig validates cfg and applies process-wide settings.
func finishConfig(cfg config.Config) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers > 0 {
		parallel.SetWorkers(cfg.Workers)
	}
	logger := initLogger(cfg.LogLevel)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"workers": parallel.Workers(),
	}).Debug("configuration loaded")
	return logger, nil
}

// initLogger logs to stderr so stdout stays free for results and the
// JSON-RPC stream. Debug level uses readable text; other levels emit JSON.
func initLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if lvl >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}
