package domain

import (
	"fmt"
	"time"
)

// MalformedTripleError reports a candidate weight triple whose components
// are negative or do not sum to 1 within SumTolerance. Raised at build time
// only; malformed triples never enter the table.
type MalformedTripleError struct {
	Key  WeightKey
	Year int
	Sum  float64
}

func (e *MalformedTripleError) Error() string {
	return fmt.Sprintf("malformed weight triple for %s year=%d: components sum to %.12f", e.Key, e.Year, e.Sum)
}

// NoBasisError reports that no candidate years exist for a block's weight
// key at any enabled granularity. The affected block is skipped and
// reported; it is never approximated with an invented distribution.
type NoBasisError struct {
	CellID int64
	Start  time.Time
	Key    WeightKey
}

func (e *NoBasisError) Error() string {
	return fmt.Sprintf("no climatological basis for cell=%d block=%s (%s)",
		e.CellID, e.Start.Format(time.RFC3339), e.Key)
}

// SumViolationError reports that a selected triple failed to reproduce the
// block total within SumTolerance. This indicates corrupt weight-table data
// and poisons the affected key for the rest of the run.
type SumViolationError struct {
	CellID     int64
	Start      time.Time
	Key        WeightKey
	SourceYear int
	Total      float64
	Got        float64
}

func (e *SumViolationError) Error() string {
	return fmt.Sprintf("sum invariant violation for cell=%d block=%s (%s year=%d): want %.12f got %.12f",
		e.CellID, e.Start.Format(time.RFC3339), e.Key, e.SourceYear, e.Total, e.Got)
}

// DataGapError marks an hour with no usable source data. Recovered locally
// by the aggregator via exclusion (or zero-fill when configured); collected
// into the run report, never fabricated into precipitation.
type DataGapError struct {
	CellID int64
	Hour   time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("no usable observations for cell=%d hour=%s", e.CellID, e.Hour.Format(time.RFC3339))
}
