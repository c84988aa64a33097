package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"icrank/adapters/metrics"
	"icrank/adapters/rng"
	"icrank/app"
	"icrank/internal"
	"icrank/internal/config"
	"icrank/internal/errors"
	"icrank/internal/profiling"
	"icrank/internal/testkit"
)

func newSummarizeCmd(logger *internal.Logger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize [features-file]",
		Short: "Print shape, missingness and value distribution of a feature matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMatrix(args[0], logger)
			if err != nil {
				return err
			}
			summary, err := profiling.Summarize(m)
			if err != nil {
				return errors.Wrap(err, "failed to summarize")
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			summary.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List registered metric identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range metrics.DefaultRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newDemoCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	gen := testkit.DefaultExpressionConfig()
	ranking := cfg.Ranking
	var outPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Rank a synthetic matrix with planted signal features",
		Long: `Generate a seeded synthetic matrix where the first features follow the
reference (and the next ones its negation), then rank it.

Example: icrank demo --demo-features 500 --demo-samples 60 --n-perms 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyParams(cmd); err != nil {
				return err
			}
			if err := config.Validate(&config.Config{Ranking: ranking, Log: cfg.Log}); err != nil {
				return err
			}
			m, ref, err := testkit.NewExpressionGenerator(gen).Generate()
			if err != nil {
				return errors.ConfigInvalid(err.Error())
			}
			logger.Info("[Demo] Generated %d features x %d samples (%d positive, %d negative signals)",
				m.NumFeatures(), m.NumSamples(), gen.PositiveSignals, gen.NegativeSignals)

			svc := app.NewRankingService(metrics.DefaultRegistry(), rng.NewSeededAdapter(), logger).
				WithProgress(app.NewLogProgress(logger))
			res, err := svc.Rank(cmd.Context(), app.RankRequest{Matrix: m, Reference: ref, Config: ranking})
			if err != nil {
				return errors.Wrap(err, "ranking failed")
			}
			if outPath != "" {
				if err := writeScores(cmd.OutOrStdout(), outPath, res.Table); err != nil {
					return err
				}
			}
			printReport(cmd.OutOrStdout(), app.BuildReport(res.Table, ranking.NFeatures))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&gen.FeatureCount, "demo-features", gen.FeatureCount, "Synthetic feature count")
	f.IntVar(&gen.SampleCount, "demo-samples", gen.SampleCount, "Synthetic sample count")
	f.IntVar(&gen.PositiveSignals, "demo-positive", gen.PositiveSignals, "Features following the reference")
	f.IntVar(&gen.NegativeSignals, "demo-negative", gen.NegativeSignals, "Features following the negated reference")
	f.Float64Var(&gen.NoiseLevel, "demo-noise", gen.NoiseLevel, "Noise sd of signal features")
	f.Int64Var(&gen.Seed, "demo-seed", gen.Seed, "Seed of the synthetic data")
	f.StringVar(&outPath, "out", "", "Also write the score table (.tsv, .xlsx, or - for stdout)")
	bindRankingFlags(cmd, &ranking)
	return cmd
}
