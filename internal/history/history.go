// Package history implements an append-only, non-authoritative log of
// completed rounds to a local sqlite file, for post-hoc analysis only —
// the live game keeps no persisted state of its own; a judge run with
// --history-db unset never touches this package.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is an append-only sink for round results.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the sqlite file at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RoundResult is one row recorded after each completed round.
type RoundResult struct {
	Seed         uint64
	RoundIndex   int
	Starter      int
	BidWinner    int
	Bid          int
	RoundScores  [2]int
	Cumulative   [2]int
}

// RecordRound appends one row. Never mutates or deletes existing rows —
// the log is write-only observability, not game state.
func (s *Store) RecordRound(r RoundResult) error {
	_, err := s.db.Exec(
		`INSERT INTO rounds (seed, round_index, starter, bid_winner, bid,
			round_score_team0, round_score_team1, cumulative_team0, cumulative_team1)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Seed, r.RoundIndex, r.Starter, r.BidWinner, r.Bid,
		r.RoundScores[0], r.RoundScores[1], r.Cumulative[0], r.Cumulative[1],
	)
	if err != nil {
		return fmt.Errorf("history: record round %d: %w", r.RoundIndex, err)
	}
	return nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}
