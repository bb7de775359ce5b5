// Package pipeline orchestrates one disaggregation run: build the weight
// table from historical observations, enumerate the future blocks in a
// single deterministic order, fan the per-block work out to workers, and
// write the surviving results back to the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/basinhydro/precip-disagg/internal/aggregate"
	"github.com/basinhydro/precip-disagg/internal/climatology"
	"github.com/basinhydro/precip-disagg/internal/disagg"
	"github.com/basinhydro/precip-disagg/internal/domain"
	"github.com/basinhydro/precip-disagg/internal/observability"
)

// ObservationSource reads historical observations per cell and window.
type ObservationSource interface {
	Observations(ctx context.Context, cellID int64, v domain.Variable, from, to time.Time) ([]domain.Observation, error)
}

// FutureSource reads every future 3-hour block ordered by cell then start:
// the enumeration record indices are assigned from.
type FutureSource interface {
	FutureBlocks(ctx context.Context) ([]domain.FutureBlock, error)
}

// ResultSink appends hourly results to the store.
type ResultSink interface {
	WriteResults(ctx context.Context, results []domain.HourlyResult) error
}

// Mirror optionally republishes results to a secondary destination (the
// Kafka sink). Pass nil to disable.
type Mirror interface {
	LoadBatch(ctx context.Context, results []domain.HourlyResult) error
}

// Options carries the run policy, typically lifted from config.
type Options struct {
	RunID           string
	BaseSeed        int64
	Granularity     domain.Granularity
	FallbackEnabled bool
	GapPolicy       domain.GapPolicy
	Workers         int
	HistoryStart    time.Time
	HistoryEnd      time.Time
}

// Pipeline executes disaggregation runs.
type Pipeline struct {
	obs     ObservationSource
	futures FutureSource
	sink    ResultSink
	mirror  Mirror
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	ready   atomic.Bool
}

// New creates a Pipeline. mirror may be nil.
func New(obs ObservationSource, futures FutureSource, sink ResultSink, mirror Mirror,
	logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		obs:     obs,
		futures: futures,
		sink:    sink,
		mirror:  mirror,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness returns nil once the weight table has been built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("weight table not built yet")
	}
	return nil
}

// outcome is one block's worker result, indexed by record index.
type outcome struct {
	results [3]domain.HourlyResult
	err     error
	emitted bool
}

// Run executes one complete run and returns its report. The run completes
// for every resolvable block; per-block failures are collected into the
// report rather than aborting the whole run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	report := &Report{
		RunID:       p.opts.RunID,
		BaseSeed:    p.opts.BaseSeed,
		Granularity: p.opts.Granularity,
		GapPolicy:   p.opts.GapPolicy,
	}

	blocks, err := p.futures.FutureBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("read future blocks: %w", err)
	}
	report.BlocksTotal = len(blocks)
	p.metrics.BlocksProcessed.Add(float64(len(blocks)))
	p.logger.Info("run starting",
		"run_id", p.opts.RunID,
		"blocks", len(blocks),
		"base_seed", p.opts.BaseSeed,
		"granularity", string(p.opts.Granularity),
		"gap_policy", string(p.opts.GapPolicy),
		"workers", p.opts.Workers,
	)

	resolver, err := p.buildTable(ctx, blocks, report)
	if err != nil {
		return nil, err
	}
	p.ready.Store(true)

	outcomes := p.disaggregateAll(ctx, resolver, blocks)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	results := p.collect(blocks, outcomes, report)

	if err := p.sink.WriteResults(ctx, results); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	report.ResultsWritten = len(results)
	p.metrics.ResultsWritten.Add(float64(len(results)))

	if p.mirror != nil {
		if err := p.mirror.LoadBatch(ctx, results); err != nil {
			return nil, fmt.Errorf("mirror results: %w", err)
		}
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("run complete",
		"run_id", p.opts.RunID,
		"results_written", report.ResultsWritten,
		"zero_blocks", report.ZeroBlocks,
		"fallbacks", report.Fallbacks,
		"no_basis", len(report.NoBasis),
		"sum_violations", len(report.SumViolations),
		"duration", time.Since(start),
	)
	return report, nil
}

// buildTable aggregates the historical window for every cell appearing in
// the future set and builds the weight table and resolver from it.
func (p *Pipeline) buildTable(ctx context.Context, blocks []domain.FutureBlock, report *Report) (*climatology.Resolver, error) {
	buildStart := time.Now()

	seen := make(map[int64]struct{})
	var cells []int64
	for _, b := range blocks {
		if _, ok := seen[b.CellID]; !ok {
			seen[b.CellID] = struct{}{}
			cells = append(cells, b.CellID)
		}
	}

	var totals []domain.HourlyTotal
	for _, cellID := range cells {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		obs, err := p.obs.Observations(ctx, cellID, domain.VarPrecipitation, p.opts.HistoryStart, p.opts.HistoryEnd)
		if err != nil {
			return nil, fmt.Errorf("read observations for cell %d: %w", cellID, err)
		}
		res, err := aggregate.Hourly(cellID, obs, p.opts.HistoryStart, p.opts.HistoryEnd, p.opts.GapPolicy)
		if err != nil {
			return nil, fmt.Errorf("aggregate cell %d: %w", cellID, err)
		}
		totals = append(totals, res.Totals...)
		report.DataGaps += len(res.Gaps)
	}

	table, stats := climatology.BuildTable(totals, p.opts.Granularity, p.logger)
	report.TriplesRejected = len(stats.TriplesRejected)
	report.TableKeys = table.Keys()
	p.metrics.TriplesRejected.Add(float64(len(stats.TriplesRejected)))
	p.metrics.TableKeys.Set(float64(table.Keys()))
	p.metrics.TableTriples.Set(float64(stats.TriplesStored))
	p.metrics.TableBuildDuration.Observe(time.Since(buildStart).Seconds())

	return climatology.NewResolver(table, p.opts.Granularity, p.opts.FallbackEnabled), nil
}

// disaggregateAll maps blocks to outcomes in parallel. Record indices were
// fixed by the enumeration order of blocks, so partitioning into contiguous
// index ranges cannot change any block's seed.
func (p *Pipeline) disaggregateAll(ctx context.Context, resolver *climatology.Resolver, blocks []domain.FutureBlock) []outcome {
	d := disagg.New(resolver, p.opts.BaseSeed, p.opts.RunID)
	outcomes := make([]outcome, len(blocks))

	workers := p.opts.Workers
	if workers > len(blocks) {
		workers = len(blocks)
	}
	if workers < 1 {
		return outcomes
	}
	chunk := (len(blocks) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(blocks) {
			hi = len(blocks)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				results, err := d.Disaggregate(blocks[i], int64(i))
				if err != nil {
					outcomes[i] = outcome{err: err}
					continue
				}
				outcomes[i] = outcome{results: results, emitted: true}
			}
		}(lo, hi)
	}
	wg.Wait()
	return outcomes
}

// collect walks outcomes in enumeration order, applies the poisoned-key
// rule, updates the report and metrics, and returns the flat result batch.
// A sum violation marks its key corrupt for the whole run: every block that
// resolved to that key is dropped and reported, because its results were
// produced from the same table data.
func (p *Pipeline) collect(blocks []domain.FutureBlock, outcomes []outcome, report *Report) []domain.HourlyResult {
	poisoned := make(map[domain.WeightKey]struct{})
	for i := range outcomes {
		var sv *domain.SumViolationError
		if errors.As(outcomes[i].err, &sv) {
			poisoned[sv.Key] = struct{}{}
		}
	}

	results := make([]domain.HourlyResult, 0, 3*len(blocks))
	for i := range outcomes {
		o := &outcomes[i]
		ref := BlockRef{CellID: blocks[i].CellID, Start: blocks[i].Start}

		if o.err != nil {
			var nb *domain.NoBasisError
			var sv *domain.SumViolationError
			switch {
			case errors.As(o.err, &nb):
				report.NoBasis = append(report.NoBasis, ref)
				p.metrics.NoBasisSkipped.Inc()
				p.logger.Warn("block skipped, no climatological basis",
					"cell", ref.CellID, "block", ref.Start.Format(time.RFC3339))
			case errors.As(o.err, &sv):
				report.SumViolations = append(report.SumViolations, ref)
				p.metrics.SumViolations.Inc()
				p.logger.Error("sum invariant violation, block dropped",
					"cell", ref.CellID, "block", ref.Start.Format(time.RFC3339),
					"key", sv.Key.String(), "source_year", sv.SourceYear,
					"total", sv.Total, "got", sv.Got)
			default:
				report.SumViolations = append(report.SumViolations, ref)
				p.logger.Error("block failed", "cell", ref.CellID,
					"block", ref.Start.Format(time.RFC3339), "error", o.err)
			}
			continue
		}
		if !o.emitted {
			// Worker bailed out before reaching this block (cancelled run).
			continue
		}

		if key, resolvedFromTable := blockKey(blocks[i], o.results[0].Match, p.opts.Granularity); resolvedFromTable {
			if _, bad := poisoned[key]; bad {
				report.SumViolations = append(report.SumViolations, ref)
				p.metrics.SumViolations.Inc()
				p.logger.Error("block dropped, key poisoned by sum violation",
					"cell", ref.CellID, "block", ref.Start.Format(time.RFC3339), "key", key.String())
				continue
			}
		}

		switch o.results[0].Match {
		case domain.MatchZero:
			report.ZeroBlocks++
			p.metrics.ZeroBlocks.Inc()
		case domain.MatchFallback:
			report.Fallbacks++
			p.metrics.FallbackResolutions.Inc()
		}
		results = append(results, o.results[0], o.results[1], o.results[2])
	}
	return results
}

// blockKey reconstructs the weight key a block's results came from. Zero
// blocks consulted no table and have no key. Under month granularity every
// resolution answers from the coarse key even when tagged as an exact match.
func blockKey(b domain.FutureBlock, match domain.MatchLevel, g domain.Granularity) (domain.WeightKey, bool) {
	if match == domain.MatchZero {
		return domain.WeightKey{}, false
	}
	key := domain.WeightKey{CellID: b.CellID, Month: b.Start.Month(), HourBucket: domain.HourBucketOf(b.Start)}
	if match == domain.MatchFallback || g == domain.GranularityMonth {
		key = key.Coarse()
	}
	return key, true
}
