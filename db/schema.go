// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. dbType is "postgres" or
// "sqlite"; the schema below is portable across both drivers.
func Open(dbType, url string) (*sql.DB, error) {
	driver := dbType
	if driver == "" {
		driver = "postgres"
	}
	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// modernc.org/sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent handlers.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are always written by the application, never by the database,
// so the same DDL works on PostgreSQL and SQLite.
const schema = `
-- Organizer accounts (credit balance collaborator)
CREATE TABLE IF NOT EXISTS organizer (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    shared_credits INTEGER NOT NULL DEFAULT 0 CHECK (shared_credits >= 0),
    unlimited INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    organization TEXT,
    organizer_id TEXT NOT NULL REFERENCES organizer(id) ON DELETE CASCADE,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP NOT NULL,
    voter_limit INTEGER NOT NULL DEFAULT 0 CHECK (voter_limit >= 0),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_election_organizer ON election(organizer_id);

-- Candidates; vote_count is the denormalized tally, written only by the
-- vote admission path and the reconciliation pass
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    position TEXT NOT NULL,
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_candidate_election ON candidate(election_id);

-- Ballot ledger; append-only. The UNIQUE constraint is the authoritative
-- defense against double voting for a position
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    position TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    cast_at TIMESTAMP NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    UNIQUE (election_id, voter_id, position)
);

CREATE INDEX IF NOT EXISTS idx_ballot_election ON ballot(election_id);
CREATE INDEX IF NOT EXISTS idx_ballot_candidate ON ballot(candidate_id);
CREATE INDEX IF NOT EXISTS idx_ballot_voter ON ballot(election_id, voter_id);

-- Eligibility allow-list; zero rows for an election means open voting
CREATE TABLE IF NOT EXISTS eligibility (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    name TEXT,
    email TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_eligibility_election ON eligibility(election_id);
`
