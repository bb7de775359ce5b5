package climatology

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

const testCell = int64(42007)

// blockTotals builds the three hourly totals of one block.
func blockTotals(start time.Time, v0, v1, v2 float64) []domain.HourlyTotal {
	h := domain.BlockHours(start)
	return []domain.HourlyTotal{
		{CellID: testCell, Hour: h[0], Value: v0},
		{CellID: testCell, Hour: h[1], Value: v1},
		{CellID: testCell, Hour: h[2], Value: v2},
	}
}

func TestBuildTable_SingleBlock(t *testing.T) {
	start := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	table, stats := BuildTable(blockTotals(start, 2, 1, 1), domain.GranularityMonthHour, slog.Default())

	assert.Equal(t, 1, stats.BlocksUsed)
	assert.Equal(t, 2, stats.TriplesStored) // fine key + coarse key

	key := domain.WeightKey{CellID: testCell, Month: time.January, HourBucket: 6}
	cands := table.Candidates(key)
	require.Len(t, cands, 1)
	assert.Equal(t, 2023, cands[0].Year)
	assert.InDelta(t, 0.5, cands[0].W[0], 1e-12)
	assert.InDelta(t, 0.25, cands[0].W[1], 1e-12)
	assert.InDelta(t, 0.25, cands[0].W[2], 1e-12)

	coarse := table.Candidates(key.Coarse())
	require.Len(t, coarse, 1)
	assert.Equal(t, cands[0].W, coarse[0].W)
}

func TestBuildTable_ZeroBlockExcluded(t *testing.T) {
	start := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	table, stats := BuildTable(blockTotals(start, 0, 0, 0), domain.GranularityMonthHour, slog.Default())

	assert.Equal(t, 0, stats.BlocksUsed)
	assert.Equal(t, 1, stats.BlocksZero)
	assert.Zero(t, table.Keys())
}

func TestBuildTable_GappedBlockExcluded(t *testing.T) {
	start := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	totals := blockTotals(start, 2, 1, 1)
	totals[1].Missing = true
	totals[1].Value = 0

	table, stats := BuildTable(totals, domain.GranularityMonthHour, slog.Default())

	assert.Equal(t, 1, stats.BlocksGapped)
	assert.Zero(t, table.Keys())
}

func TestBuildTable_IncompleteBlockExcluded(t *testing.T) {
	// Only two of the block's three hours appear in the input at all.
	start := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	totals := blockTotals(start, 2, 1, 1)[:2]

	table, stats := BuildTable(totals, domain.GranularityMonthHour, slog.Default())

	assert.Equal(t, 1, stats.BlocksGapped)
	assert.Zero(t, table.Keys())
}

func TestBuildTable_AveragesWithinYear(t *testing.T) {
	// Two January 06:00 blocks in the same year average into one yearly triple.
	day1 := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, 1, 14, 6, 0, 0, 0, time.UTC)
	totals := append(blockTotals(day1, 1, 0, 0), blockTotals(day2, 0, 1, 0)...)

	table, _ := BuildTable(totals, domain.GranularityMonthHour, slog.Default())

	key := domain.WeightKey{CellID: testCell, Month: time.January, HourBucket: 6}
	cands := table.Candidates(key)
	require.Len(t, cands, 1)
	assert.InDelta(t, 0.5, cands[0].W[0], 1e-12)
	assert.InDelta(t, 0.5, cands[0].W[1], 1e-12)
	assert.InDelta(t, 0.0, cands[0].W[2], 1e-12)
}

func TestBuildTable_CandidatesPerYearSortedAscending(t *testing.T) {
	totals := blockTotals(time.Date(2025, 1, 7, 6, 0, 0, 0, time.UTC), 1, 1, 2)
	totals = append(totals, blockTotals(time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC), 2, 1, 1)...)
	totals = append(totals, blockTotals(time.Date(2024, 1, 7, 6, 0, 0, 0, time.UTC), 1, 2, 1)...)

	table, _ := BuildTable(totals, domain.GranularityMonthHour, slog.Default())

	key := domain.WeightKey{CellID: testCell, Month: time.January, HourBucket: 6}
	cands := table.Candidates(key)
	require.Len(t, cands, 3)
	assert.Equal(t, []int{2023, 2024, 2025}, []int{cands[0].Year, cands[1].Year, cands[2].Year})
}

func TestBuildTable_MonthGranularitySkipsFineKeys(t *testing.T) {
	start := time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC)
	table, _ := BuildTable(blockTotals(start, 2, 1, 1), domain.GranularityMonth, slog.Default())

	fine := domain.WeightKey{CellID: testCell, Month: time.January, HourBucket: 6}
	assert.Empty(t, table.Candidates(fine))
	assert.Len(t, table.Candidates(fine.Coarse()), 1)
	assert.Equal(t, 1, table.Keys())
}

func TestBuildTable_CoarseKeyMergesHourBuckets(t *testing.T) {
	// Same month, different hour buckets: coarse key sees both, averaged per year.
	morning := blockTotals(time.Date(2023, 1, 7, 6, 0, 0, 0, time.UTC), 1, 0, 0)
	evening := blockTotals(time.Date(2023, 1, 7, 18, 0, 0, 0, time.UTC), 0, 0, 1)

	table, _ := BuildTable(append(morning, evening...), domain.GranularityMonthHour, slog.Default())

	coarse := domain.WeightKey{CellID: testCell, Month: time.January, HourBucket: domain.AnyHour}
	cands := table.Candidates(coarse)
	require.Len(t, cands, 1)
	assert.InDelta(t, 0.5, cands[0].W[0], 1e-12)
	assert.InDelta(t, 0.0, cands[0].W[1], 1e-12)
	assert.InDelta(t, 0.5, cands[0].W[2], 1e-12)
}
