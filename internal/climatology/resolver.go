package climatology

import (
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// Resolution is a successful key lookup: the key that matched and its
// candidate triples. Fallback records that the coarse key answered after an
// empty fine-grained lookup.
type Resolution struct {
	Key        domain.WeightKey
	Candidates []domain.WeightTriple
	Fallback   bool
}

// Resolver maps a future block's cell and start time to candidate weight
// triples. The fine (cell, month, hour-bucket) key is always preferred when
// non-empty, regardless of how many candidate years the coarse key holds;
// coarse granularity is selected through the granularity setting instead.
type Resolver struct {
	table           *Table
	granularity     domain.Granularity
	fallbackEnabled bool
}

// NewResolver creates a Resolver over an immutable table.
func NewResolver(table *Table, granularity domain.Granularity, fallbackEnabled bool) *Resolver {
	return &Resolver{table: table, granularity: granularity, fallbackEnabled: fallbackEnabled}
}

// Resolve returns the applicable candidates for a block starting at start.
// Resolution never fails silently: when no candidate years exist at any
// enabled granularity the error is a *domain.NoBasisError naming the block.
func (r *Resolver) Resolve(cellID int64, start time.Time) (Resolution, error) {
	fine := domain.WeightKey{CellID: cellID, Month: start.Month(), HourBucket: domain.HourBucketOf(start)}

	if r.granularity == domain.GranularityMonthHour {
		if cands := r.table.Candidates(fine); len(cands) > 0 {
			return Resolution{Key: fine, Candidates: cands}, nil
		}
		if !r.fallbackEnabled {
			return Resolution{}, &domain.NoBasisError{CellID: cellID, Start: start, Key: fine}
		}
	}

	coarse := fine.Coarse()
	if cands := r.table.Candidates(coarse); len(cands) > 0 {
		return Resolution{
			Key:        coarse,
			Candidates: cands,
			Fallback:   r.granularity == domain.GranularityMonthHour,
		}, nil
	}
	return Resolution{}, &domain.NoBasisError{CellID: cellID, Start: start, Key: coarse}
}
