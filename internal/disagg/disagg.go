// Package disagg splits future 3-hour precipitation totals into hourly
// values by sampling one historical year's weight triple per block.
// Randomness is scoped to triple selection only; the arithmetic of
// distribution is a plain multiplication, which is what guarantees exact
// sum preservation regardless of which year is picked.
package disagg

import (
	"fmt"
	"math"
	"time"

	"github.com/basinhydro/precip-disagg/internal/climatology"
	"github.com/basinhydro/precip-disagg/internal/domain"
)

// KeyResolver resolves a block's cell and start time to candidate triples.
// Implemented by climatology.Resolver.
type KeyResolver interface {
	Resolve(cellID int64, start time.Time) (climatology.Resolution, error)
}

// Disaggregator turns one FutureBlock into three HourlyResults. It holds no
// mutable state and is safe for concurrent use by parallel workers.
type Disaggregator struct {
	resolver KeyResolver
	baseSeed int64
	runID    string
}

// New creates a Disaggregator sampling with the given base seed.
func New(resolver KeyResolver, baseSeed int64, runID string) *Disaggregator {
	return &Disaggregator{resolver: resolver, baseSeed: baseSeed, runID: runID}
}

// Disaggregate splits block into three hourly results using the block's
// stable record index. Zero-total blocks yield three zero results without
// consulting the weight table. Otherwise one candidate triple is selected
// uniformly at random (seeded by base seed + index, candidates ordered by
// year ascending) and applied; the three outputs are verified to sum back
// to the block total within domain.SumTolerance. A failed verification is a
// *domain.SumViolationError: corrupt table data, never silently corrected.
func (d *Disaggregator) Disaggregate(block domain.FutureBlock, index int64) ([3]domain.HourlyResult, error) {
	if !domain.IsBlockAligned(block.Start) {
		return [3]domain.HourlyResult{}, fmt.Errorf("disaggregate: block start %s is not aligned to the 3-hour schedule",
			block.Start.Format(time.RFC3339))
	}

	if block.TotalMM == 0 {
		return d.results(block, [3]float64{}, 0, domain.MatchZero), nil
	}

	res, err := d.resolver.Resolve(block.CellID, block.Start)
	if err != nil {
		return [3]domain.HourlyResult{}, err
	}

	rng := newRNG(d.baseSeed, index)
	pick := res.Candidates[rng.Intn(len(res.Candidates))]

	values := pick.Apply(block.TotalMM)
	sum := values[0] + values[1] + values[2]
	if math.Abs(sum-block.TotalMM) > domain.SumTolerance*math.Max(1, math.Abs(block.TotalMM)) {
		return [3]domain.HourlyResult{}, &domain.SumViolationError{
			CellID:     block.CellID,
			Start:      block.Start,
			Key:        res.Key,
			SourceYear: pick.Year,
			Total:      block.TotalMM,
			Got:        sum,
		}
	}

	match := domain.MatchExact
	if res.Fallback {
		match = domain.MatchFallback
	}
	return d.results(block, values, pick.Year, match), nil
}

func (d *Disaggregator) results(block domain.FutureBlock, values [3]float64, year int, match domain.MatchLevel) [3]domain.HourlyResult {
	hours := domain.BlockHours(block.Start)
	now := domain.Now()

	var out [3]domain.HourlyResult
	for i := range out {
		out[i] = domain.HourlyResult{
			CellID:      block.CellID,
			Hour:        hours[i],
			ValueMM:     values[i],
			BlockStart:  block.Start,
			SourceYear:  year,
			Match:       match,
			RunID:       d.runID,
			ProcessedAt: now,
		}
	}
	return out
}
