package stats

import (
	"math"
	"sort"
	"strconv"

	"icrank/domain/core"
)

// Column names of the score table. The MoE column is "<confidence> MoE".
const (
	ColumnLocalP  = "Local P-value"
	ColumnGlobalP = "Global P-value"
	ColumnFDR     = "FDR (BH)"
)

// DefaultSeed matches the fixed seed used by the reference analyses.
const DefaultSeed int64 = 20121020

// Direction states which tail of the null distribution counts as extreme.
type Direction string

const (
	GreaterIsBetter Direction = "greater_is_better"
	LessIsBetter    Direction = "less_is_better"
)

// ParseDirection validates a direction identifier.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case GreaterIsBetter, LessIsBetter:
		return Direction(s), nil
	}
	return "", core.NewConfigError("comparison direction", strconv.Quote(s)+" is not greater_is_better or less_is_better")
}

// Beyond reports whether a null score is strictly more extreme than the observed one.
// NaN on either side is never beyond.
func (d Direction) Beyond(null, observed float64) bool {
	if d == LessIsBetter {
		return null < observed
	}
	return null > observed
}

// Config is the parameter bundle for one compute-and-rank call.
type Config struct {
	Metric             string    `json:"metric"`
	NFeatures          float64   `json:"n_features"` // count if >= 1, quantile if in (0, 1)
	Ascending          bool      `json:"ascending"`
	NSamplings         int       `json:"n_samplings"`
	Confidence         float64   `json:"confidence"`
	NPerms             int       `json:"n_perms"`
	Direction          Direction `json:"comparison_direction"`
	SortReference      bool      `json:"sort_reference"`
	ReferenceAscending bool      `json:"reference_ascending"`
	Seed               int64     `json:"seed"`
	Workers            int       `json:"workers"` // <= 0 means runtime.NumCPU()
}

// DefaultConfig returns the settings of the reference analyses.
func DefaultConfig() Config {
	return Config{
		Metric:        "information_coef",
		NFeatures:     0.95,
		Ascending:     false,
		NSamplings:    30,
		Confidence:    0.95,
		NPerms:        30,
		Direction:     GreaterIsBetter,
		SortReference: true,
		Seed:          DefaultSeed,
	}
}

// Validate rejects bundles the engine cannot run with.
// NSamplings below 2 is allowed: bootstrap is skipped, not failed.
func (c Config) Validate() error {
	if c.Metric == "" {
		return core.NewConfigError("metric", "is required")
	}
	if !(c.NFeatures > 0) || math.IsInf(c.NFeatures, 0) {
		return core.NewConfigError("n_features", "must be a count >= 1 or a quantile in (0, 1)")
	}
	if !(c.Confidence > 0 && c.Confidence < 1) {
		return core.NewConfigError("confidence", "must be in (0, 1)")
	}
	if c.NPerms < 1 {
		return core.NewConfigError("n_perms", "must be >= 1")
	}
	if _, err := ParseDirection(string(c.Direction)); err != nil {
		return err
	}
	return nil
}

// ScoreRow is one feature's line of the score table.
type ScoreRow struct {
	Feature       string   `json:"feature"`
	Score         float64  `json:"score"`
	MarginOfError *float64 `json:"margin_of_error,omitempty"` // nil when not bootstrapped
	LocalP        float64  `json:"local_p"`
	GlobalP       float64  `json:"global_p"`
	FDR           float64  `json:"fdr"`
}

// ScoreTable is the merged output of every stage.
type ScoreTable struct {
	Metric           string     `json:"metric"`
	Confidence       float64    `json:"confidence"`
	HasMarginOfError bool       `json:"has_margin_of_error"`
	Rows             []ScoreRow `json:"rows"`
}

// MarginOfErrorColumn names the bootstrap column, e.g. "0.95 MoE".
func MarginOfErrorColumn(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', -1, 64) + " MoE"
}

// Columns returns the header of the table, excluding the feature key.
func (t *ScoreTable) Columns() []string {
	cols := []string{t.Metric}
	if t.HasMarginOfError {
		cols = append(cols, MarginOfErrorColumn(t.Confidence))
	}
	return append(cols, ColumnLocalP, ColumnGlobalP, ColumnFDR)
}

// Len returns the number of features
func (t *ScoreTable) Len() int { return len(t.Rows) }

// Features returns feature names in table order.
func (t *ScoreTable) Features() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Feature
	}
	return out
}

// Row looks up a feature by name.
func (t *ScoreTable) Row(feature string) (ScoreRow, bool) {
	for _, r := range t.Rows {
		if r.Feature == feature {
			return r, true
		}
	}
	return ScoreRow{}, false
}

// SortRows orders rows by score. NaN scores are the lowest rank: first when
// ascending, last when descending. Equal scores keep their input order.
func SortRows(rows []ScoreRow, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return LessNaNFirst(rows[i].Score, rows[j].Score)
		}
		return LessNaNFirst(rows[j].Score, rows[i].Score)
	})
}

// LessNaNFirst is the canonical score order: NaN below every number.
func LessNaNFirst(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a < b
}
