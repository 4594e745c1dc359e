package main

import (
	"fmt"
	"os"

	"ksk-service/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
)

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event consumer and janitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(cfg *config.Config, logger *zap.Logger) error {
				return runServe(cmd.Context(), cfg, logger)
			})
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Overwrite the stored request list with the demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(cfg *config.Config, logger *zap.Logger) error {
				return runSeed(cmd.Context(), cfg, logger)
			})
		},
	}

	rootCmd := &cobra.Command{
		Use:           "ksk-service",
		Short:         "Citizen request service for housing cooperatives",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, seedCmd)
	return rootCmd
}

func withRuntime(run func(*config.Config, *zap.Logger) error) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return err
	}
	return run(cfg, logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
