package pipeline

import (
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// BlockRef identifies one affected future block in the run report.
type BlockRef struct {
	CellID int64
	Start  time.Time
}

// Report summarizes a completed run: the policy it ran under and the count
// and identity of blocks affected by each failure kind. A run completes for
// every resolvable block; failures are reported, not papered over.
type Report struct {
	RunID       string
	BaseSeed    int64
	Granularity domain.Granularity
	GapPolicy   domain.GapPolicy

	BlocksTotal    int
	ResultsWritten int
	ZeroBlocks     int
	Fallbacks      int

	// DataGaps counts historical hours the gap policy was applied to.
	DataGaps        int
	TriplesRejected int
	TableKeys       int

	// NoBasis lists blocks skipped because no candidate years exist at any
	// enabled granularity.
	NoBasis []BlockRef

	// SumViolations lists blocks dropped by the sum-preservation assertion,
	// including blocks on a key poisoned by an earlier violation.
	SumViolations []BlockRef
}
