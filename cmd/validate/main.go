// Command validate performs end-to-end integrity checks on a completed
// disaggregation run: block alignment, sum preservation against the future
// block totals, per-result field integrity, and coverage of the future set.
//
// Usage:
//
//	go run ./cmd/validate -db data/basin.db [-run <run-id>]
//
// Without -run the most recent run in the database is validated.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
	"github.com/basinhydro/precip-disagg/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "data/basin.db", "SQLite database path")
	runID := flag.String("run", "", "run ID to validate (default: most recent)")
	flag.Parse()

	if code := run(*dbPath, *runID); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, runID string) int {
	ctx := context.Background()

	db, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open %s: %v\n", dbPath, err)
		return 1
	}
	defer db.Close()

	if runID == "" {
		ids, err := db.RunIDs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: list runs: %v\n", err)
			return 1
		}
		if len(ids) == 0 {
			fmt.Fprintln(os.Stderr, "FATAL: no runs in database")
			return 1
		}
		runID = ids[0]
	}

	fmt.Println("=== Disaggregation Run Integrity Validation ===")
	fmt.Printf("Run: %s\n\n", runID)

	results, err := db.Results(ctx, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}
	futures, err := db.FutureBlocks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load future blocks: %v\n", err)
		return 1
	}

	groups := groupByBlock(results)
	totals := indexFutures(futures)

	phases := []*phase{
		validateAlignment(groups),
		validateSums(groups, totals),
		validateFields(results, runID),
		validateCoverage(groups, totals),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d hourly results over %d blocks, %d future blocks\n",
		len(results), len(groups), len(futures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// blockRef identifies one 3-hour block of one cell.
type blockRef struct {
	cellID int64
	start  time.Time
}

func (b blockRef) String() string {
	return fmt.Sprintf("cell %d block %s", b.cellID, b.start.Format(time.RFC3339))
}

func groupByBlock(results []domain.HourlyResult) map[blockRef][]domain.HourlyResult {
	groups := make(map[blockRef][]domain.HourlyResult)
	for _, r := range results {
		ref := blockRef{cellID: r.CellID, start: r.BlockStart.UTC()}
		groups[ref] = append(groups[ref], r)
	}
	return groups
}

func indexFutures(futures []domain.FutureBlock) map[blockRef]float64 {
	totals := make(map[blockRef]float64, len(futures))
	for _, b := range futures {
		totals[blockRef{cellID: b.CellID, start: b.Start.UTC()}] = b.TotalMM
	}
	return totals
}

// ── Phase 1: Block Alignment ──
// Every block has exactly three results on consecutive hours starting at an
// aligned block boundary.

func validateAlignment(groups map[blockRef][]domain.HourlyResult) *phase {
	p := &phase{name: "Phase 1: Block Alignment"}

	for ref, rs := range groups {
		if !domain.IsBlockAligned(ref.start) {
			p.errorf("%s: start not aligned to the 3-hour schedule", ref)
		}
		if len(rs) != 3 {
			p.errorf("%s: expected 3 hourly results, got %d", ref, len(rs))
			continue
		}
		hours := domain.BlockHours(ref.start)
		for i, r := range rs {
			if !r.Hour.UTC().Equal(hours[i]) {
				p.errorf("%s: hour %d is %s, expected %s", ref, i,
					r.Hour.UTC().Format(time.RFC3339), hours[i].Format(time.RFC3339))
			}
		}
	}
	return p
}

// ── Phase 2: Sum Preservation ──
// The three hourly values of each block sum back to the block total.

func validateSums(groups map[blockRef][]domain.HourlyResult, totals map[blockRef]float64) *phase {
	p := &phase{name: "Phase 2: Sum Preservation"}

	var maxDiff float64
	for ref, rs := range groups {
		total, ok := totals[ref]
		if !ok {
			continue // reported in coverage phase
		}
		var sum float64
		for _, r := range rs {
			sum += r.ValueMM
		}
		diff := math.Abs(sum - total)
		if diff > maxDiff {
			maxDiff = diff
		}
		if diff > domain.SumTolerance*math.Max(1, math.Abs(total)) {
			p.errorf("%s: hourly sum %.12f differs from block total %.12f by %.3e", ref, sum, total, diff)
		}
	}
	fmt.Printf("  max |hourly sum - block total| = %.3e\n", maxDiff)
	return p
}

// ── Phase 3: Field Integrity ──

func validateFields(results []domain.HourlyResult, runID string) *phase {
	p := &phase{name: "Phase 3: Field Integrity"}

	for i, r := range results {
		if r.ValueMM < 0 || math.IsNaN(r.ValueMM) {
			p.errorf("result %d: value %v is negative or NaN", i, r.ValueMM)
		}
		switch r.Match {
		case domain.MatchExact, domain.MatchFallback:
			if r.SourceYear == 0 {
				p.errorf("result %d: match %q without a source year", i, r.Match)
			}
		case domain.MatchZero:
			if r.ValueMM != 0 {
				p.errorf("result %d: zero-match result has value %v", i, r.ValueMM)
			}
			if r.SourceYear != 0 {
				p.errorf("result %d: zero-match result has source year %d", i, r.SourceYear)
			}
		default:
			p.errorf("result %d: unknown match level %q", i, r.Match)
		}
		if r.RunID != runID {
			p.errorf("result %d: run ID %q, expected %q", i, r.RunID, runID)
		}
		if r.ProcessedAt.IsZero() {
			p.errorf("result %d: processed_at is zero", i)
		}
	}
	return p
}

// ── Phase 4: Coverage ──
// Every result block exists in the future set, and every dry future block
// that produced results produced zeros. Future blocks without results are
// legitimate (no climatological basis) and only counted.

func validateCoverage(groups map[blockRef][]domain.HourlyResult, totals map[blockRef]float64) *phase {
	p := &phase{name: "Phase 4: Future Set Coverage"}

	for ref := range groups {
		if _, ok := totals[ref]; !ok {
			p.errorf("%s: results exist but block is not in the future set", ref)
		}
	}

	var uncovered int
	for ref, total := range totals {
		rs, ok := groups[ref]
		if !ok {
			uncovered++
			continue
		}
		if total == 0 {
			for _, r := range rs {
				if r.Match != domain.MatchZero {
					p.errorf("%s: dry block has match level %q", ref, r.Match)
				}
			}
		}
	}
	if uncovered > 0 {
		fmt.Printf("  Note: %d future block(s) without results (skipped for missing basis)\n", uncovered)
	}
	return p
}
