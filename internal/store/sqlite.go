// Package store adapts a SQLite time-series database to the domain types.
// The layout matches the upstream ingester's: one append-only table per
// record kind keyed by (time, cell). The store owns no durability policy
// beyond SQLite's defaults; the core only issues range queries and bulk
// appends at the edges of a run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/basinhydro/precip-disagg/internal/domain"
)

// timeLayout is the timestamp encoding used throughout the store. It sorts
// lexicographically, so range predicates on the TEXT column are correct.
const timeLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	time     TEXT    NOT NULL,
	cell_id  INTEGER NOT NULL,
	variable TEXT    NOT NULL,
	value    REAL    NOT NULL,
	PRIMARY KEY (time, cell_id, variable)
);
CREATE TABLE IF NOT EXISTS future_pr (
	time    TEXT    NOT NULL,
	cell_id INTEGER NOT NULL,
	pr      REAL    NOT NULL,
	PRIMARY KEY (time, cell_id)
);
CREATE TABLE IF NOT EXISTS hourly_results (
	time         TEXT    NOT NULL,
	cell_id      INTEGER NOT NULL,
	pr           REAL    NOT NULL,
	block_time   TEXT    NOT NULL,
	source_year  INTEGER NOT NULL,
	match_level  TEXT    NOT NULL,
	run_id       TEXT    NOT NULL,
	processed_at TEXT    NOT NULL,
	PRIMARY KEY (time, cell_id, run_id)
);
`

// SQLite is a time-series store backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Observations returns the observations of one variable for one cell within
// [from, to), ordered by time.
func (s *SQLite) Observations(ctx context.Context, cellID int64, v domain.Variable, from, to time.Time) ([]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, value FROM observations
		 WHERE cell_id = ? AND variable = ? AND time >= ? AND time < ?
		 ORDER BY time`,
		cellID, string(v), from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var obs []domain.Observation
	for rows.Next() {
		var ts string
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		t, err := time.ParseInLocation(timeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse observation time %q: %w", ts, err)
		}
		obs = append(obs, domain.Observation{Time: t, CellID: cellID, Var: v, Value: value})
	}
	return obs, rows.Err()
}

// InsertObservations appends observations in one transaction.
func (s *SQLite) InsertObservations(ctx context.Context, obs []domain.Observation) error {
	return s.insertBatch(ctx,
		`INSERT INTO observations (time, cell_id, variable, value) VALUES (?, ?, ?, ?)`,
		len(obs), func(stmt *sql.Stmt, i int) error {
			o := obs[i]
			_, err := stmt.ExecContext(ctx, o.Time.UTC().Format(timeLayout), o.CellID, string(o.Var), o.Value)
			return err
		})
}

// FutureBlocks returns every future 3-hour block ordered by cell then block
// start: the single deterministic enumeration that record indices are
// assigned from.
func (s *SQLite) FutureBlocks(ctx context.Context) ([]domain.FutureBlock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, cell_id, pr FROM future_pr ORDER BY cell_id, time`)
	if err != nil {
		return nil, fmt.Errorf("query future blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.FutureBlock
	for rows.Next() {
		var ts string
		var cellID int64
		var pr float64
		if err := rows.Scan(&ts, &cellID, &pr); err != nil {
			return nil, fmt.Errorf("scan future block: %w", err)
		}
		t, err := time.ParseInLocation(timeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse future block time %q: %w", ts, err)
		}
		blocks = append(blocks, domain.FutureBlock{CellID: cellID, Start: t, TotalMM: pr})
	}
	return blocks, rows.Err()
}

// InsertFutureBlocks appends future blocks in one transaction.
func (s *SQLite) InsertFutureBlocks(ctx context.Context, blocks []domain.FutureBlock) error {
	return s.insertBatch(ctx,
		`INSERT INTO future_pr (time, cell_id, pr) VALUES (?, ?, ?)`,
		len(blocks), func(stmt *sql.Stmt, i int) error {
			b := blocks[i]
			_, err := stmt.ExecContext(ctx, b.Start.UTC().Format(timeLayout), b.CellID, b.TotalMM)
			return err
		})
}

// WriteResults appends hourly results in one transaction. Re-running with
// the same run ID replaces nothing; a fresh run ID keeps runs side by side.
func (s *SQLite) WriteResults(ctx context.Context, results []domain.HourlyResult) error {
	return s.insertBatch(ctx,
		`INSERT INTO hourly_results (time, cell_id, pr, block_time, source_year, match_level, run_id, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(results), func(stmt *sql.Stmt, i int) error {
			r := results[i]
			_, err := stmt.ExecContext(ctx,
				r.Hour.UTC().Format(timeLayout), r.CellID, r.ValueMM,
				r.BlockStart.UTC().Format(timeLayout), r.SourceYear, string(r.Match),
				r.RunID, r.ProcessedAt.UTC().Format(timeLayout))
			return err
		})
}

// Results returns the hourly results of one run ordered by cell, block and hour.
func (s *SQLite) Results(ctx context.Context, runID string) ([]domain.HourlyResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, cell_id, pr, block_time, source_year, match_level, processed_at
		 FROM hourly_results WHERE run_id = ?
		 ORDER BY cell_id, block_time, time`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.HourlyResult
	for rows.Next() {
		var hourStr, blockStr, match, processedStr string
		r := domain.HourlyResult{RunID: runID}
		if err := rows.Scan(&hourStr, &r.CellID, &r.ValueMM, &blockStr, &r.SourceYear, &match, &processedStr); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Match = domain.MatchLevel(match)
		if r.Hour, err = time.ParseInLocation(timeLayout, hourStr, time.UTC); err != nil {
			return nil, fmt.Errorf("parse result time %q: %w", hourStr, err)
		}
		if r.BlockStart, err = time.ParseInLocation(timeLayout, blockStr, time.UTC); err != nil {
			return nil, fmt.Errorf("parse result block time %q: %w", blockStr, err)
		}
		if r.ProcessedAt, err = time.ParseInLocation(timeLayout, processedStr, time.UTC); err != nil {
			return nil, fmt.Errorf("parse result processed_at %q: %w", processedStr, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunIDs returns the distinct run IDs present in hourly_results, most
// recently processed first.
func (s *SQLite) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM hourly_results GROUP BY run_id ORDER BY MAX(processed_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) insertBatch(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
