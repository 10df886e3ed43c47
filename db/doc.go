// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection, schema creation, and the tally
reconciliation pass.

# Connection

Open supports two drivers behind the same portable schema:

	conn, err := db.Open("postgres", cfg.DatabaseURL)
	conn, err := db.Open("sqlite", "file:electorate.db")

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - organizer: Accounts with the shared-credit balance
  - election: Voting events with start/end window and voter capacity
  - candidate: Candidates with the denormalized vote_count tally
  - ballot: Append-only vote ledger
  - eligibility: Per-election voter allow-list

# Relationships

	organizer 1──* election
	election 1──* candidate
	election 1──* ballot
	election 1──* eligibility

All child foreign keys use ON DELETE CASCADE from election.

# Uniqueness

Two constraints carry correctness weight:

  - ballot(election_id, voter_id, position): prevents double voting for a
    position even when concurrent requests race past the read-side check
  - eligibility(election_id, voter_id): one roster row per voter

IsUniqueViolation classifies driver errors from either backend.

# Reconciliation

candidate.vote_count is derived from the ballot ledger. ReconcileTallies
recomputes it and repairs drift; RunReconciler does so periodically.
*/
package db
