package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"icrank/adapters/metrics"
	"icrank/adapters/rng"
	"icrank/adapters/tabular"
	"icrank/app"
	"icrank/domain/dataset"
	"icrank/domain/stats"
	"icrank/internal"
	"icrank/internal/config"
	"icrank/internal/errors"
	"icrank/internal/profiling"
)

// paramFlags maps parameters-file keys to flag names
var paramFlags = map[string]string{
	"metric":               "metric",
	"n_features":           "n-features",
	"ascending":            "ascending",
	"n_samplings":          "n-samplings",
	"confidence":           "confidence",
	"n_perms":              "n-perms",
	"comparison_direction": "direction",
	"sort_reference":       "sort-reference",
	"reference_ascending":  "reference-ascending",
	"seed":                 "seed",
	"workers":              "workers",
}

// bindRankingFlags exposes every ranking parameter; defaults come from the environment
func bindRankingFlags(cmd *cobra.Command, c *stats.Config) {
	f := cmd.Flags()
	f.String("params", "", "JSON parameters file; explicit flags win over it")
	f.String("params-prefix", "", "Object path inside the parameters file, e.g. ranking")
	f.StringVar(&c.Metric, "metric", c.Metric, "Metric identifier (see icrank metrics)")
	f.Float64Var(&c.NFeatures, "n-features", c.NFeatures, "Count (>= 1) or quantile (0, 1) of features to bootstrap and report")
	f.BoolVar(&c.Ascending, "ascending", c.Ascending, "Sort the output by ascending score")
	f.IntVar(&c.NSamplings, "n-samplings", c.NSamplings, "Bootstrap replicates (< 2 disables the margin of error)")
	f.Float64Var(&c.Confidence, "confidence", c.Confidence, "Confidence level of the margin of error")
	f.IntVar(&c.NPerms, "n-perms", c.NPerms, "Permutations of the reference")
	f.StringVar((*string)(&c.Direction), "direction", string(c.Direction), "greater_is_better or less_is_better")
	f.BoolVar(&c.SortReference, "sort-reference", c.SortReference, "Sort columns by reference value before scoring")
	f.BoolVar(&c.ReferenceAscending, "reference-ascending", c.ReferenceAscending, "Sort reference values ascending")
	f.Int64Var(&c.Seed, "seed", c.Seed, "Random seed for bootstrap and permutations")
	f.IntVar(&c.Workers, "workers", c.Workers, "Worker goroutines (0 means one per CPU)")
}

func newRankCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var (
		featuresPath  string
		referencePath string
		referenceRow  string
		outPath       string
		mergedPath    string
		jsonReport    bool
	)
	ranking := cfg.Ranking

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score, bootstrap and permutation-test every feature against a reference",
		Long: `Compute the association of every feature row with a reference row, a bootstrap
margin of error for the top and bottom features, permutation p-values and
Benjamini-Hochberg FDR.

Inputs are TSV, CSV, GCT or XLSX with row names in the first column, optionally
compressed with gzip (.gz) or bzip2 (.bz2).

Example: icrank rank --features expr.gct --reference pheno.tsv --reference-row ER_status --out scores.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyParams(cmd); err != nil {
				return err
			}
			if err := config.Validate(&config.Config{Ranking: ranking, Log: cfg.Log}); err != nil {
				return err
			}

			m, err := readMatrix(featuresPath, logger)
			if err != nil {
				return err
			}
			if _, err := os.Stat(referencePath); err != nil {
				return errors.IOError(referencePath, err)
			}
			ref, err := tabular.NewDataReader(referencePath, logger).ReadReference(referenceRow)
			if err != nil {
				return errors.Wrapf(err, "failed to read reference %s", referencePath)
			}

			if summary, err := profiling.Summarize(m); err != nil {
				logger.Warn("[Rank] Could not summarize features: %v", err)
			} else {
				logger.Info("[Rank] Features: %d x %d, %.2f%% NaN", summary.NFeatures, summary.NSamples, 100*summary.NaNFraction)
			}

			svc := app.NewRankingService(metrics.DefaultRegistry(), rng.NewSeededAdapter(), logger).
				WithProgress(app.NewLogProgress(logger))
			res, err := svc.Rank(cmd.Context(), app.RankRequest{Matrix: m, Reference: ref, Config: ranking})
			if err != nil {
				return errors.Wrap(err, "ranking failed")
			}

			if err := writeScores(cmd.OutOrStdout(), outPath, res.Table); err != nil {
				return err
			}
			if mergedPath != "" {
				if err := writeMerged(mergedPath, res.Matrix, res.Table); err != nil {
					return err
				}
			}

			report := app.BuildReport(res.Table, ranking.NFeatures)
			if jsonReport {
				enc := json.NewEncoder(cmd.ErrOrStderr())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.ErrOrStderr(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&featuresPath, "features", "", "Feature matrix file (features x samples)")
	cmd.Flags().StringVar(&referencePath, "reference", "", "Reference file (one or more rows x samples)")
	cmd.Flags().StringVar(&referenceRow, "reference-row", "", "Reference row name (default: first row)")
	cmd.Flags().StringVar(&outPath, "out", "-", "Score table output (.tsv, .xlsx, optional .gz/.bz2, or - for stdout)")
	cmd.Flags().StringVar(&mergedPath, "merged", "", "Also write feature values merged with scores to this TSV (optional .gz/.bz2)")
	cmd.Flags().BoolVar(&jsonReport, "json-report", false, "Print the report of selected features as JSON")
	cmd.MarkFlagRequired("features")
	cmd.MarkFlagRequired("reference")
	bindRankingFlags(cmd, &ranking)
	return cmd
}

// applyParams fills flags the user did not set from the parameters file
func applyParams(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("params")
	if path == "" {
		return nil
	}
	prefix, _ := cmd.Flags().GetString("params-prefix")
	params, err := config.ReadParams(path, prefix)
	if err != nil {
		return err
	}
	for key, value := range params {
		name := paramFlags[key]
		if cmd.Flags().Changed(name) {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("%s: %s: %v", path, key, err))
		}
	}
	return nil
}

func readMatrix(path string, logger *internal.Logger) (*dataset.FeatureMatrix, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.IOError(path, err)
	}
	m, err := tabular.NewDataReader(path, logger).ReadMatrix()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read feature matrix %s", path)
	}
	return m, nil
}

func writeScores(stdout io.Writer, path string, table *stats.ScoreTable) error {
	if path == "-" || path == "" {
		return tabular.WriteScores(stdout, table)
	}
	if err := tabular.WriteScoresFile(path, table); err != nil {
		return errors.IOError(path, err)
	}
	return nil
}

func writeMerged(path string, m *dataset.FeatureMatrix, table *stats.ScoreTable) error {
	if err := tabular.WriteMergedFile(path, m, table); err != nil {
		return errors.IOError(path, err)
	}
	return nil
}

func printReport(w io.Writer, report *app.Report) {
	fmt.Fprintf(w, "%-24s %-16s %-8s %-8s\n", "Feature", "IC(Δ)", "P-val", "FDR")
	for _, a := range report.Annotations {
		fmt.Fprintf(w, "%-24s %-16s %-8s %-8s\n", a.Feature, a.ICDelta, a.PValue, a.FDR)
	}
}
