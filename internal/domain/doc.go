// Package domain models the records and invariants of stochastic
// precipitation disaggregation.
//
// # Data Source
//
// Historical precipitation arrives as sub-hourly observations loaded into a
// SQLite time-series store by an upstream ingester (one row per timestamp,
// cell and variable, precipitation already converted to mm). Future climate
// simulations arrive as one precipitation total per 3-hour block per cell.
//
// # Block Schedule
//
// A 3-hour block is a fixed, non-overlapping window aligned to hours
// 0, 3, 6, 9, 12, 15, 18, 21 (UTC-equivalent). A block's timestamp is its
// start; the block covers hour offsets 0, 1 and 2. [AlignBlockStart] floors
// an arbitrary timestamp to its containing block.
//
// # Weight Triples
//
// A WeightTriple is the fractional split of one historical 3-hour total
// across its three hours, tagged with the year it was observed in. Triples
// are validated at construction ([NewWeightTriple]): components must be
// non-negative and sum to 1 within SumTolerance, and are renormalized to
// sum to exactly 1 before use. Downstream, applying a triple to a future
// total is therefore pure multiplication and preserves the total by
// construction.
//
// # Seeding Policy
//
// Every future block has a stable record index assigned from one
// deterministic enumeration (sorted by cell then block start) before any
// parallel dispatch. Its selection seed is base_seed + record_index, and a
// locally scoped generator is created per block, so results are bit-identical
// across runs with the same inputs and base seed regardless of worker count
// or scheduling.
package domain
