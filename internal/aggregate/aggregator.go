// Package aggregate reduces raw sub-hourly precipitation observations into
// clean per-hour totals for one cell, applying the configured gap policy.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// Result holds the hourly totals for one cell together with the gaps the
// policy was applied to.
type Result struct {
	Totals []domain.HourlyTotal
	Gaps   []domain.DataGapError
}

// Hourly sums precipitation observations into per-hour totals for cellID
// over [from, to). Each observation belongs to exactly the hour containing
// its timestamp, so nothing is double-counted. An hour with no observations,
// or with any unusable one (negative or NaN precipitation), is a gap:
// excluded via a Missing marker under domain.GapExclude, or recorded as a
// zero total under domain.GapZeroFill. Observations for other cells or
// variables are ignored.
func Hourly(cellID int64, obs []domain.Observation, from, to time.Time, policy domain.GapPolicy) (Result, error) {
	from = from.UTC().Truncate(time.Hour)
	to = to.UTC().Truncate(time.Hour)
	if !to.After(from) {
		return Result{}, fmt.Errorf("aggregate: empty window [%s, %s)", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	if policy != domain.GapExclude && policy != domain.GapZeroFill {
		return Result{}, fmt.Errorf("aggregate: unknown gap policy %q", policy)
	}

	sums := make(map[time.Time]float64)
	tainted := make(map[time.Time]bool)
	for _, o := range obs {
		if o.CellID != cellID || o.Var != domain.VarPrecipitation {
			continue
		}
		ts := o.Time.UTC()
		if ts.Before(from) || !ts.Before(to) {
			continue
		}
		hour := ts.Truncate(time.Hour)
		if o.Value < 0 || math.IsNaN(o.Value) {
			tainted[hour] = true
			continue
		}
		sums[hour] += o.Value
	}

	nHours := int(to.Sub(from) / time.Hour)
	res := Result{Totals: make([]domain.HourlyTotal, 0, nHours)}
	for hour := from; hour.Before(to); hour = hour.Add(time.Hour) {
		sum, ok := sums[hour]
		if ok && !tainted[hour] {
			res.Totals = append(res.Totals, domain.HourlyTotal{CellID: cellID, Hour: hour, Value: sum})
			continue
		}

		res.Gaps = append(res.Gaps, domain.DataGapError{CellID: cellID, Hour: hour})
		if policy == domain.GapZeroFill {
			res.Totals = append(res.Totals, domain.HourlyTotal{CellID: cellID, Hour: hour, Value: 0})
		} else {
			res.Totals = append(res.Totals, domain.HourlyTotal{CellID: cellID, Hour: hour, Missing: true})
		}
	}

	return res, nil
}
