package domain

import "time"

// Variable identifies a meteorological variable in the time-series store.
type Variable string

const (
	VarPrecipitation Variable = "pr"   // precipitation, mm
	VarTemperature   Variable = "tas"  // near-surface air temperature, °C
	VarRadiation     Variable = "rsds" // downwelling shortwave radiation, W/m²
)

// Observation is one raw historical reading from the time-series store.
// Observations are externally supplied and never mutated.
type Observation struct {
	Time   time.Time
	CellID int64
	Var    Variable
	Value  float64
}

// HourlyTotal is the per-hour precipitation sum for one cell, derived by the
// aggregator. Missing marks an hour excluded by the gap policy; a missing
// hour carries no value and is skipped by the weight table builder.
type HourlyTotal struct {
	CellID  int64
	Hour    time.Time // truncated to the hour, UTC
	Value   float64   // mm
	Missing bool
}

// FutureBlock is one future 3-hour precipitation total to be disaggregated.
type FutureBlock struct {
	CellID  int64
	Start   time.Time // block start, aligned to the 0/3/…/21 schedule
	TotalMM float64
}

// MatchLevel records how a block's weight key was resolved.
type MatchLevel string

const (
	MatchExact    MatchLevel = "exact"    // fine-grained (cell, month, hour-bucket) key
	MatchFallback MatchLevel = "fallback" // coarse (cell, month) key after empty fine key
	MatchZero     MatchLevel = "zero"     // zero-total block, no triple consulted
)

// HourlyResult is one disaggregated hourly value. Three results are emitted
// per future block; their values sum to the block total within SumTolerance.
type HourlyResult struct {
	CellID      int64      `json:"cell_id"`
	Hour        time.Time  `json:"hour"`
	ValueMM     float64    `json:"value_mm"`
	BlockStart  time.Time  `json:"block_start"`
	SourceYear  int        `json:"source_year,omitempty"` // historical year whose triple was applied
	Match       MatchLevel `json:"match_level"`
	RunID       string     `json:"run_id"`
	ProcessedAt time.Time  `json:"processed_at"`
}
