package engine

import (
	"context"
	"math"

	"icrank/domain/dataset"
	"icrank/domain/stats"
	"icrank/ports"
)

// ComputeScores applies metric to every feature row against ref.
// Rows come back in canonical ascending score order (NaN first).
func ComputeScores(ctx context.Context, m *dataset.FeatureMatrix, ref []float64, metric ports.Metric, opts Options) ([]stats.ScoreRow, error) {
	log := opts.logger()
	log.Info("[Score] Computing %d features vs. reference using %s metric", m.NumFeatures(), metric.Name())

	scores, err := BatchScore(ctx, m.Values, ref, metric, opts)
	if err != nil {
		return nil, err
	}

	rows := make([]stats.ScoreRow, len(scores))
	for i, s := range scores {
		rows[i] = stats.ScoreRow{Feature: m.Features[i], Score: s}
	}
	stats.SortRows(rows, true)
	return rows, nil
}

// ScoresByRow re-indexes ranked rows to matrix row order.
func ScoresByRow(m *dataset.FeatureMatrix, rows []stats.ScoreRow) []float64 {
	idx := m.RowIndex()
	out := make([]float64, m.NumFeatures())
	for i := range out {
		out[i] = math.NaN()
	}
	for _, r := range rows {
		if i, ok := idx[r.Feature]; ok {
			out[i] = r.Score
		}
	}
	return out
}
