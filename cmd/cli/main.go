package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"icrank/internal"
	"icrank/internal/config"
	"icrank/internal/errors"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
	logger := internal.NewLoggerTo(os.Stderr, cfg.Log.Level, cfg.Log.NoColor)
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(cfg, logger).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "icrank",
		Short:         "Rank features by association with a reference vector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRankCmd(cfg, logger),
		newSummarizeCmd(logger),
		newMetricsCmd(),
		newDemoCmd(cfg, logger),
	)
	return rootCmd
}
