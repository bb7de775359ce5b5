package climatology

import (
	"log/slog"
	"sort"
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// BuildStats summarizes one table build.
type BuildStats struct {
	BlocksUsed      int // blocks contributing shape information
	BlocksZero      int // excluded: zero 3-hour total carries no shape
	BlocksGapped    int // excluded: at least one constituent hour missing
	TriplesStored   int
	TriplesRejected []domain.MalformedTripleError
}

// yearAccum accumulates per-year triples for one key so several blocks in
// the same (key, year) average into a single yearly shape.
type yearAccum struct {
	sum   [3]float64
	count int
}

// BuildTable converts hourly totals into a weight table. Blocks are aligned
// to the fixed 0/3/…/21 schedule; a block with a missing hour or a zero
// total contributes nothing. Each surviving block's hourly shares become a
// candidate for its (cell, month, hour-bucket) key tagged with the block's
// year; multiple blocks in the same key and year are averaged component-wise
// into one yearly triple, preserving the full per-year candidate set that
// the disaggregator samples from. Under month-hour granularity the coarse
// (cell, month) keys are populated as well so the resolver can fall back.
// Malformed triples are rejected, reported in the stats, and the build
// continues with the remaining data.
func BuildTable(totals []domain.HourlyTotal, granularity domain.Granularity, logger *slog.Logger) (*Table, BuildStats) {
	byHour := make(map[int64]map[time.Time]domain.HourlyTotal)
	starts := make(map[int64]map[time.Time]struct{})
	for _, ht := range totals {
		cell := byHour[ht.CellID]
		if cell == nil {
			cell = make(map[time.Time]domain.HourlyTotal)
			byHour[ht.CellID] = cell
			starts[ht.CellID] = make(map[time.Time]struct{})
		}
		cell[ht.Hour.UTC()] = ht
		starts[ht.CellID][domain.AlignBlockStart(ht.Hour)] = struct{}{}
	}

	var stats BuildStats
	accums := make(map[domain.WeightKey]map[int]*yearAccum)
	accumulate := func(key domain.WeightKey, year int, w [3]float64) {
		years := accums[key]
		if years == nil {
			years = make(map[int]*yearAccum)
			accums[key] = years
		}
		a := years[year]
		if a == nil {
			a = &yearAccum{}
			years[year] = a
		}
		for i := range w {
			a.sum[i] += w[i]
		}
		a.count++
	}

	for cellID, cellStarts := range starts {
		hours := byHour[cellID]
		for start := range cellStarts {
			h := domain.BlockHours(start)
			h0, ok0 := hours[h[0]]
			h1, ok1 := hours[h[1]]
			h2, ok2 := hours[h[2]]
			if !ok0 || !ok1 || !ok2 || h0.Missing || h1.Missing || h2.Missing {
				stats.BlocksGapped++
				continue
			}
			total := h0.Value + h1.Value + h2.Value
			if total == 0 {
				stats.BlocksZero++
				continue
			}
			w := [3]float64{h0.Value / total, h1.Value / total, h2.Value / total}
			stats.BlocksUsed++

			fine := domain.WeightKey{CellID: cellID, Month: start.Month(), HourBucket: start.Hour()}
			if granularity == domain.GranularityMonthHour {
				accumulate(fine, start.Year(), w)
			}
			accumulate(fine.Coarse(), start.Year(), w)
		}
	}

	table := &Table{candidates: make(map[domain.WeightKey][]domain.WeightTriple, len(accums))}
	for key, years := range accums {
		triples := make([]domain.WeightTriple, 0, len(years))
		for year, a := range years {
			avg := [3]float64{
				a.sum[0] / float64(a.count),
				a.sum[1] / float64(a.count),
				a.sum[2] / float64(a.count),
			}
			triple, err := domain.NewWeightTriple(year, avg)
			if err != nil {
				mt := err.(*domain.MalformedTripleError)
				mt.Key = key
				stats.TriplesRejected = append(stats.TriplesRejected, *mt)
				logger.Warn("rejected malformed weight triple", "key", key.String(), "year", year, "sum", mt.Sum)
				continue
			}
			triples = append(triples, triple)
		}
		if len(triples) == 0 {
			continue
		}
		// Fixed candidate ordering so generator-index-to-candidate mapping
		// is reproducible across runs and implementations.
		sort.Slice(triples, func(i, j int) bool { return triples[i].Year < triples[j].Year })
		table.candidates[key] = triples
		stats.TriplesStored += len(triples)
	}

	logger.Info("weight table built",
		"keys", table.Keys(),
		"triples", stats.TriplesStored,
		"blocks_used", stats.BlocksUsed,
		"blocks_zero", stats.BlocksZero,
		"blocks_gapped", stats.BlocksGapped,
		"triples_rejected", len(stats.TriplesRejected),
	)
	return table, stats
}
