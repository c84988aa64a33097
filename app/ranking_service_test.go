package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"icrank/adapters/metrics"
	"icrank/adapters/rng"
	"icrank/domain/core"
	"icrank/domain/dataset"
	"icrank/domain/stats"
	"icrank/internal"
	"icrank/internal/engine"
	"icrank/internal/testkit"
)

type mockProgress struct {
	mock.Mock
}

func (m *mockProgress) Report(stage string, done, total int) {
	m.Called(stage, done, total)
}

func newService() *RankingService {
	return NewRankingService(metrics.DefaultRegistry(), rng.NewSeededAdapter(), internal.NewDiscardLogger())
}

func uniformInput(t *testing.T, seed int64, nFeatures, nSamples int) (*dataset.FeatureMatrix, *dataset.Reference) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	features := make([]string, nFeatures)
	values := make([][]float64, nFeatures)
	for i := range features {
		features[i] = fmt.Sprintf("f%d", i)
		row := make([]float64, nSamples)
		for j := range row {
			row[j] = r.Float64()
		}
		values[i] = row
	}
	samples := make([]string, nSamples)
	refValues := make([]float64, nSamples)
	for j := range samples {
		samples[j] = fmt.Sprintf("s%d", j)
		refValues[j] = r.Float64()
	}
	m, err := dataset.NewFeatureMatrix(features, samples, values)
	require.NoError(t, err)
	ref, err := dataset.NewReference("target", append([]string(nil), samples...), refValues)
	require.NoError(t, err)
	return m, ref
}

func TestRank_SmallTableWithoutBootstrap(t *testing.T) {
	m, ref := uniformInput(t, 1, 3, 10)
	cfg := stats.DefaultConfig()
	cfg.NSamplings = 0
	cfg.NPerms = 100

	res, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)

	table := res.Table
	assert.Equal(t, 3, table.Len())
	assert.False(t, table.HasMarginOfError)
	assert.Equal(t, []string{"information_coef", stats.ColumnLocalP, stats.ColumnGlobalP, stats.ColumnFDR}, table.Columns())

	for _, row := range table.Rows {
		assert.Nil(t, row.MarginOfError)
		assert.GreaterOrEqual(t, row.LocalP, 0.01)
		assert.LessOrEqual(t, row.LocalP, 1.0)
		scaled := row.LocalP * 100
		assert.InDelta(t, math.Round(scaled), scaled, 1e-9, "local p is a multiple of 0.01")
	}
}

func TestRank_IdenticalFeatureIsMostExtreme(t *testing.T) {
	m, ref := uniformInput(t, 2, 15, 20)
	m.Values[4] = append([]float64(nil), ref.Values...)

	cfg := stats.DefaultConfig()
	cfg.Metric = "pearson"
	cfg.NPerms = 50
	res, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)

	// Descending by default: the identical feature leads.
	top := res.Table.Rows[0]
	assert.Equal(t, "f4", top.Feature)
	assert.InDelta(t, 1.0, top.Score, 1e-12)
	for _, row := range res.Table.Rows[1:] {
		assert.LessOrEqual(t, top.GlobalP, row.GlobalP, row.Feature)
	}
	assert.Equal(t, 1.0/(50*15), top.GlobalP)
}

func TestRank_InputValidation(t *testing.T) {
	m, ref := uniformInput(t, 3, 4, 6)
	svc := newService()

	cfg := stats.DefaultConfig()
	cfg.Metric = "no_such_metric"
	_, err := svc.Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	assert.True(t, errors.Is(err, core.ErrInvalidMetric))

	cfg = stats.DefaultConfig()
	cfg.NFeatures = 0
	_, err = svc.Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))

	other, err := dataset.NewReference("disjoint", []string{"x", "y"}, []float64{1, 2})
	require.NoError(t, err)
	_, err = svc.Rank(context.Background(), RankRequest{Matrix: m, Reference: other, Config: stats.DefaultConfig()})
	assert.True(t, errors.Is(err, core.ErrEmptyIntersection))
}

func TestRank_AlignsToCommonSamples(t *testing.T) {
	m, ref := uniformInput(t, 4, 5, 12)
	partial, err := dataset.NewReference("partial", ref.Samples[2:9], ref.Values[2:9])
	require.NoError(t, err)

	cfg := stats.DefaultConfig()
	cfg.Metric = "pearson"
	cfg.NPerms = 5
	res, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: partial, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Matrix.NumSamples())
	assert.Equal(t, res.Matrix.Samples, res.Reference.Samples)
}

func TestRank_DropsAllZeroRows(t *testing.T) {
	m, ref := uniformInput(t, 5, 6, 10)
	m.Values[2] = make([]float64, 10)

	cfg := stats.DefaultConfig()
	cfg.Metric = "pearson"
	cfg.NPerms = 5
	res, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DroppedRows)
	assert.Equal(t, 5, res.Table.Len())
	_, found := res.Table.Row("f2")
	assert.False(t, found)
}

func TestRank_SeedDeterminism(t *testing.T) {
	m, ref := uniformInput(t, 6, 12, 16)
	cfg := stats.DefaultConfig()
	cfg.NSamplings = 8
	cfg.NPerms = 20

	cfg.Workers = 1
	a, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)
	cfg.Workers = 8
	b, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, a.Table, b.Table)

	cfg.Seed++
	c, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)
	assert.NotEqual(t, a.Table, c.Table)
}

func TestRank_ColumnOrderDoesNotChangeResults(t *testing.T) {
	m, ref := uniformInput(t, 7, 8, 14)
	order := rand.New(rand.NewSource(70)).Perm(m.NumSamples())
	shuffled := m.SelectColumns(order)

	cfg := stats.DefaultConfig()
	cfg.Metric = "pearson"
	cfg.NSamplings = 6
	cfg.NPerms = 15

	// Sorting by the reference makes the column order canonical.
	a, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)
	b, err := newService().Rank(context.Background(), RankRequest{Matrix: shuffled, Reference: ref, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, a.Table, b.Table)

	cfg.SortReference = false
	c, err := newService().Rank(context.Background(), RankRequest{Matrix: shuffled, Reference: ref, Config: cfg})
	require.NoError(t, err)
	for _, row := range a.Table.Rows {
		other, ok := c.Table.Row(row.Feature)
		require.True(t, ok)
		assert.InDelta(t, row.Score, other.Score, 1e-9, row.Feature)
	}
}

func TestRank_OrderingAndFDR(t *testing.T) {
	m, ref, err := testkit.NewExpressionGenerator(testkit.ExpressionGeneratorConfig{
		FeatureCount: 40, SampleCount: 20, PositiveSignals: 3, NegativeSignals: 3, NoiseLevel: 0.2, Seed: 11,
	}).Generate()
	require.NoError(t, err)

	cfg := stats.DefaultConfig()
	cfg.NFeatures = 3
	cfg.NSamplings = 10
	cfg.NPerms = 20
	cfg.Ascending = true
	res, err := newService().Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)

	table := res.Table
	require.True(t, table.HasMarginOfError)
	assert.Equal(t, "0.95 MoE", table.Columns()[1])

	withMoE := 0
	for i, row := range table.Rows {
		if i > 0 {
			assert.False(t, stats.LessNaNFirst(row.Score, table.Rows[i-1].Score), "ascending order")
		}
		assert.GreaterOrEqual(t, row.FDR, row.GlobalP)
		assert.LessOrEqual(t, row.FDR, 1.0)
		if row.MarginOfError != nil {
			withMoE++
			assert.GreaterOrEqual(t, *row.MarginOfError, 0.0)
		}
	}
	assert.Equal(t, 6, withMoE, "bootstrap covers the 3 lowest and 3 highest")

	lowest := table.Rows[0].Feature
	highest := table.Rows[len(table.Rows)-1].Feature
	assert.Contains(t, []string{testkit.FeatureName(3), testkit.FeatureName(4), testkit.FeatureName(5)}, lowest)
	assert.Contains(t, []string{testkit.FeatureName(0), testkit.FeatureName(1), testkit.FeatureName(2)}, highest)
}

func TestRank_ReportsProgress(t *testing.T) {
	m, ref := uniformInput(t, 8, 5, 10)
	progress := &mockProgress{}
	progress.On("Report", mock.Anything, mock.Anything, mock.Anything).Return()

	cfg := stats.DefaultConfig()
	cfg.Metric = "pearson"
	cfg.NSamplings = 4
	cfg.NPerms = 7
	_, err := newService().WithProgress(progress).Rank(context.Background(), RankRequest{Matrix: m, Reference: ref, Config: cfg})
	require.NoError(t, err)

	progress.AssertCalled(t, "Report", engine.StageScore, 5, 5)
	progress.AssertCalled(t, "Report", engine.StageBootstrap, 4, 4)
	progress.AssertCalled(t, "Report", engine.StagePermutation, 7, 7)
}

func TestRank_Cancelled(t *testing.T) {
	m, ref := uniformInput(t, 9, 5, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService().Rank(ctx, RankRequest{Matrix: m, Reference: ref, Config: stats.DefaultConfig()})
	assert.ErrorIs(t, err, context.Canceled)
}
