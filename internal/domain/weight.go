package domain

import (
	"fmt"
	"math"
	"time"
)

// SumTolerance is the relative tolerance for the two numeric invariants:
// a triple's components summing to 1, and a block's three hourly results
// summing back to the block total.
const SumTolerance = 1e-9

// AnyHour marks a WeightKey at the coarse month-only granularity.
const AnyHour = -1

// WeightKey identifies one climatological regime: a cell and month, at
// either the fine (with 3-hour bucket) or coarse (AnyHour) granularity.
type WeightKey struct {
	CellID     int64
	Month      time.Month
	HourBucket int // 0, 3, …, 21, or AnyHour
}

// Coarse returns the month-only version of the key.
func (k WeightKey) Coarse() WeightKey {
	k.HourBucket = AnyHour
	return k
}

// IsCoarse reports whether the key is at month-only granularity.
func (k WeightKey) IsCoarse() bool { return k.HourBucket == AnyHour }

// String renders the key for logs and error messages, e.g. "cell=42007 month=1 hour=06"
// or "cell=42007 month=1 hour=*".
func (k WeightKey) String() string {
	if k.IsCoarse() {
		return fmt.Sprintf("cell=%d month=%d hour=*", k.CellID, int(k.Month))
	}
	return fmt.Sprintf("cell=%d month=%d hour=%02d", k.CellID, int(k.Month), k.HourBucket)
}

// WeightTriple is the fractional split of a 3-hour total across its three
// hours, tagged with the historical year it was derived from. Components are
// non-negative and sum to exactly 1 after construction.
type WeightTriple struct {
	Year int
	W    [3]float64
}

// NewWeightTriple validates and renormalizes a candidate triple. Components
// must be non-negative and sum to 1 within SumTolerance; anything else is a
// MalformedTripleError. The returned triple is renormalized to sum to
// exactly 1, absorbing floating rounding at build time rather than
// compensating at use time.
func NewWeightTriple(year int, w [3]float64) (WeightTriple, error) {
	sum := w[0] + w[1] + w[2]
	for _, c := range w {
		if c < 0 || math.IsNaN(c) {
			return WeightTriple{}, &MalformedTripleError{Year: year, Sum: sum}
		}
	}
	if math.Abs(sum-1) > SumTolerance {
		return WeightTriple{}, &MalformedTripleError{Year: year, Sum: sum}
	}
	w[0] /= sum
	w[1] /= sum
	w[2] /= sum
	return WeightTriple{Year: year, W: w}, nil
}

// Apply multiplies the block total by each component. The results sum to
// total up to one floating rounding per component.
func (t WeightTriple) Apply(total float64) [3]float64 {
	return [3]float64{total * t.W[0], total * t.W[1], total * t.W[2]}
}
