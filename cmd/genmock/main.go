// Command genmock populates a SQLite basin database with synthetic hourly
// precipitation history and future 3-hour blocks, for local runs and test
// fixtures. Generation is seeded, so the same flags always produce the
// same database.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -db data/basin.db \
//	  -cells 4 \
//	  -history-start 2020-01-01 -history-end 2024-01-01 \
//	  -future-start 2026-01-01 -future-days 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/basinhydro/precip-disagg/internal/domain"
	"github.com/basinhydro/precip-disagg/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "data/basin.db", "SQLite database path")
	cells := flag.Int("cells", 4, "number of grid cells")
	historyStart := flag.String("history-start", "2020-01-01", "first day of history (inclusive)")
	historyEnd := flag.String("history-end", "2024-01-01", "last day of history (exclusive)")
	futureStart := flag.String("future-start", "2026-01-01", "first day of future blocks")
	futureDays := flag.Int("future-days", 30, "number of future days")
	seed := flag.Int64("seed", 1, "generator seed")
	flag.Parse()

	hStart, err := time.Parse("2006-01-02", *historyStart)
	if err != nil {
		return fmt.Errorf("parse -history-start: %w", err)
	}
	hEnd, err := time.Parse("2006-01-02", *historyEnd)
	if err != nil {
		return fmt.Errorf("parse -history-end: %w", err)
	}
	fStart, err := time.Parse("2006-01-02", *futureStart)
	if err != nil {
		return fmt.Errorf("parse -future-start: %w", err)
	}
	if !hEnd.After(hStart) {
		return fmt.Errorf("-history-end must be after -history-start")
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return err
	}
	db, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	var obsTotal, wetBlocks, dryBlocks int
	for cell := int64(1); cell <= int64(*cells); cell++ {
		obs := generateHistory(rng, cell, hStart, hEnd)
		if err := db.InsertObservations(ctx, obs); err != nil {
			return fmt.Errorf("insert observations for cell %d: %w", cell, err)
		}
		obsTotal += len(obs)
	}

	var blocks []domain.FutureBlock
	for cell := int64(1); cell <= int64(*cells); cell++ {
		for day := 0; day < *futureDays; day++ {
			for hour := 0; hour < 24; hour += 3 {
				start := fStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				total := blockTotal(rng, start.Month())
				if total > 0 {
					wetBlocks++
				} else {
					dryBlocks++
				}
				blocks = append(blocks, domain.FutureBlock{CellID: cell, Start: start, TotalMM: total})
			}
		}
	}
	if err := db.InsertFutureBlocks(ctx, blocks); err != nil {
		return fmt.Errorf("insert future blocks: %w", err)
	}

	log.Printf("wrote %s", *dbPath)
	log.Printf("observations: %d over %d cells", obsTotal, *cells)
	log.Printf("future blocks: %d (wet=%d dry=%d)", len(blocks), wetBlocks, dryBlocks)
	return nil
}

// generateHistory emits one hourly precipitation observation per hour of the
// window. Rain arrives in 3-hour storms whose hourly split is random, so the
// built weight table gets varied triples per month and hour bucket.
func generateHistory(rng *rand.Rand, cell int64, from, to time.Time) []domain.Observation {
	var obs []domain.Observation
	for t := from; t.Before(to); t = t.Add(domain.BlockDuration) {
		total := blockTotal(rng, t.Month())
		split := randomSplit(rng)
		for i := 0; i < 3; i++ {
			obs = append(obs, domain.Observation{
				Time:   t.Add(time.Duration(i) * time.Hour),
				CellID: cell,
				Var:    domain.VarPrecipitation,
				Value:  total * split[i],
			})
		}
	}
	return obs
}

// blockTotal draws a 3-hour precipitation total in mm. Most blocks are dry;
// winter months are wetter than summer ones.
func blockTotal(rng *rand.Rand, month time.Month) float64 {
	wetProb := 0.15
	if month <= time.March || month >= time.October {
		wetProb = 0.3
	}
	if rng.Float64() >= wetProb {
		return 0
	}
	return rng.ExpFloat64() * 2.5
}

// randomSplit draws three non-negative fractions summing to one.
func randomSplit(rng *rand.Rand) [3]float64 {
	a, b := rng.Float64(), rng.Float64()
	if a > b {
		a, b = b, a
	}
	return [3]float64{a, b - a, 1 - b}
}
