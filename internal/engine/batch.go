package engine

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"icrank/ports"
)

// progressEvery bounds the rows scored between two progress reports.
const progressEvery = 1000

// scoreRows writes metric(rows[i], ref) into out[i]. It is the single place
// where a metric is invoked; NaN results are stored as-is.
func scoreRows(rows [][]float64, ref []float64, metric ports.Metric, out []float64) {
	for i, row := range rows {
		out[i] = metric.Score(row, ref)
	}
}

// BatchScore scores every row against ref, splitting rows across workers.
// The result is indexed like rows. Zero rows yield an empty slice.
func BatchScore(ctx context.Context, rows [][]float64, ref []float64, metric ports.Metric, opts Options) ([]float64, error) {
	out := make([]float64, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	workers := opts.workers()
	chunk := (len(rows) + workers*4 - 1) / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}
	if chunk > progressEvery {
		chunk = progressEvery
	}
	nChunks := (len(rows) + chunk - 1) / chunk

	var done atomic.Int64
	err := parallelFor(ctx, nChunks, workers, func(c int) error {
		lo := c * chunk
		hi := lo + chunk
		if hi > len(rows) {
			hi = len(rows)
		}
		scoreRows(rows[lo:hi], ref, metric, out[lo:hi])
		opts.report(StageScore, int(done.Add(int64(hi-lo))), len(rows))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parallelFor runs fn(0..n-1) on at most workers goroutines. Each call must
// only write output slots it owns. It stops early when ctx is cancelled.
func parallelFor(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
