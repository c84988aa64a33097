package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"icrank/domain/core"
	"icrank/domain/dataset"
	"icrank/domain/stats"
	"icrank/internal"
	"icrank/internal/engine"
	"icrank/ports"
)

// RankingService computes and ranks feature-vs-reference associations
type RankingService struct {
	registry ports.MetricRegistry
	rngPort  ports.RNGPort
	logger   *internal.Logger
	progress ports.ProgressReporter
}

// RankRequest defines the inputs of one compute-and-rank call
type RankRequest struct {
	Matrix    *dataset.FeatureMatrix
	Reference *dataset.Reference
	Config    stats.Config
}

// RankResult contains the merged score table and the data it was computed on
type RankResult struct {
	RunID core.RunID        `json:"run_id"`
	Table *stats.ScoreTable `json:"table"`

	// Matrix and Reference are the aligned inputs in final column order,
	// after all-zero rows were dropped.
	Matrix      *dataset.FeatureMatrix `json:"-"`
	Reference   *dataset.Reference     `json:"-"`
	DroppedRows int                    `json:"dropped_rows"`
	RuntimeMs   int64                  `json:"runtime_ms"`
}

// NewRankingService creates a ranking service. A nil logger logs through internal.DefaultLogger.
func NewRankingService(registry ports.MetricRegistry, rngPort ports.RNGPort, logger *internal.Logger) *RankingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RankingService{
		registry: registry,
		rngPort:  rngPort,
		logger:   logger,
	}
}

// WithProgress attaches a progress reporter to every stage
func (s *RankingService) WithProgress(p ports.ProgressReporter) *RankingService {
	s.progress = p
	return s
}

// Rank runs the full pipeline: align, drop all-zero rows, optionally sort
// columns by the reference, score, bootstrap the selected features, run the
// permutation test on every feature, correct with Benjamini-Hochberg and
// order the merged table.
func (s *RankingService) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	startTime := time.Now()
	cfg := req.Config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if req.Matrix == nil || req.Reference == nil {
		return nil, core.NewConfigError("input", "feature matrix and reference are required")
	}
	if err := req.Matrix.Validate(); err != nil {
		return nil, err
	}
	if err := req.Reference.Validate(); err != nil {
		return nil, err
	}
	metric, err := s.registry.Lookup(cfg.Metric)
	if err != nil {
		return nil, err
	}

	runID := core.NewRunID()
	log := s.logger.With("run", runID.Short())
	opts := engine.Options{Workers: cfg.Workers, Logger: log, Progress: s.progress}

	m, ref, err := dataset.Align(req.Matrix, req.Reference)
	if err != nil {
		return nil, err
	}
	log.Info("[Rank] Using %d samples common to features and reference %s", m.NumSamples(), ref.Name)

	m, dropped := m.DropZeroRows()
	if dropped > 0 {
		log.Info("[Rank] Dropped %d features with all-zero values", dropped)
	}
	if cfg.SortReference {
		m, ref = dataset.SortByReference(m, ref, cfg.ReferenceAscending)
	}

	ranked, err := engine.ComputeScores(ctx, m, ref.Values, metric, opts)
	if err != nil {
		return nil, fmt.Errorf("compute scores: %w", err)
	}
	observed := engine.ScoresByRow(m, ranked)
	selected := engine.Select(ranked, cfg.NFeatures)

	bootRNG, err := s.rngPort.Stream(ctx, engine.StageBootstrap, cfg.Seed)
	if err != nil {
		return nil, err
	}
	permRNG, err := s.rngPort.Stream(ctx, engine.StagePermutation, cfg.Seed)
	if err != nil {
		return nil, err
	}

	var (
		moe          map[string]float64
		bootstrapped bool
		perm         *engine.PermutationResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		moe, bootstrapped, err = engine.Bootstrap(gctx, m, ref.Values, selected, metric, bootRNG,
			engine.BootstrapConfig{NSamplings: cfg.NSamplings, Confidence: cfg.Confidence}, opts)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		perm, err = engine.PermutationTest(gctx, m, ref.Values, observed, metric, cfg.NPerms, cfg.Direction, permRNG, opts)
		if err != nil {
			return fmt.Errorf("permutation test: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fdr := engine.BenjaminiHochberg(perm.GlobalP)

	rows := make([]stats.ScoreRow, m.NumFeatures())
	for i, f := range m.Features {
		row := stats.ScoreRow{
			Feature: f,
			Score:   observed[i],
			LocalP:  perm.LocalP[i],
			GlobalP: perm.GlobalP[i],
			FDR:     fdr[i],
		}
		if v, ok := moe[f]; ok {
			row.MarginOfError = &v
		}
		rows[i] = row
	}
	stats.SortRows(rows, cfg.Ascending)

	table := &stats.ScoreTable{
		Metric:           metric.Name(),
		Confidence:       cfg.Confidence,
		HasMarginOfError: bootstrapped,
		Rows:             rows,
	}

	runtime := time.Since(startTime)
	log.Info("[Rank] Ranked %d features in %v", table.Len(), runtime.Round(time.Millisecond))

	return &RankResult{
		RunID:       runID,
		Table:       table,
		Matrix:      m,
		Reference:   ref,
		DroppedRows: dropped,
		RuntimeMs:   runtime.Milliseconds(),
	}, nil
}
