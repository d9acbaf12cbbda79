// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/clout-engine/pkg/types"
)

// SQLite is the database Recorder. Same two append-only tables as the
// workbook, for runs whose output feeds further tooling.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path and bootstraps the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed_url TEXT NOT NULL,
			variant TEXT NOT NULL,
			headline TEXT,
			text TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			emails TEXT,
			proper_nouns TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS serp_debug (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed_url TEXT NOT NULL,
			query TEXT NOT NULL,
			rank INTEGER NOT NULL,
			link TEXT NOT NULL,
			snippet TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_seed_url ON drafts(seed_url)`,
		`CREATE INDEX IF NOT EXISTS idx_serp_debug_seed_url ON serp_debug(seed_url)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

// RecordAudit inserts one serp_debug row per search result, in rank order,
// inside one transaction so an audit row is never half-persisted.
func (s *SQLite) RecordAudit(row types.AuditRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning audit transaction: %w", err)
	}
	for _, r := range row.Results {
		if _, err := tx.Exec(
			`INSERT INTO serp_debug (seed_url, query, rank, link, snippet) VALUES (?, ?, ?, ?, ?)`,
			row.SeedURL, row.Query, r.Rank, r.Link, r.Snippet,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting serp_debug row: %w", err)
		}
	}
	return tx.Commit()
}

// RecordDraft inserts one drafts row.
func (s *SQLite) RecordDraft(d types.Draft, ent types.Entities) error {
	_, err := s.db.Exec(
		`INSERT INTO drafts (seed_url, variant, headline, text, generated_at, emails, proper_nouns)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.SeedURL, d.Variant.Label(), d.Headline, d.Text,
		d.GeneratedAt.Format(timeFormat),
		strings.Join(ent.Emails, ", "),
		strings.Join(ent.ProperNouns, ", "),
	)
	if err != nil {
		return fmt.Errorf("inserting draft row: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
