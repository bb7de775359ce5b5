// Package climatology builds the weight table from aggregated hourly
// history and resolves future timestamps to their candidate weight triples.
package climatology

import "github.com/basinhydro/precip-disagg/internal/domain"

// Table holds the candidate weight triples per climatological key. It is
// built once per run and read-only thereafter, so it is safe to share
// across disaggregation workers without locking.
type Table struct {
	candidates map[domain.WeightKey][]domain.WeightTriple // sorted by year ascending
}

// Candidates returns the triples for key, one per historical year with
// sufficient data, ordered by year ascending. The returned slice must not
// be modified.
func (t *Table) Candidates(key domain.WeightKey) []domain.WeightTriple {
	return t.candidates[key]
}

// Keys returns the number of distinct keys with at least one candidate.
func (t *Table) Keys() int { return len(t.candidates) }
