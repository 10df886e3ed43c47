// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Drift is a candidate whose denormalized vote_count disagrees with the
// ballot ledger.
type Drift struct {
	CandidateID string
	ElectionID  string
	Counter     int
	LedgerCount int
}

// ReconcileTallies recomputes every candidate's vote_count from the ballot
// ledger and repairs any row that drifted. The ledger is the source of
// truth; a non-empty result means a vote commit was torn at some point and
// should be treated as an operator-attention event by the caller.
func ReconcileTallies(ctx context.Context, db *sql.DB) ([]Drift, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.election_id, c.vote_count,
		       (SELECT COUNT(*) FROM ballot b WHERE b.candidate_id = c.id)
		FROM candidate c
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates for reconciliation: %w", err)
	}
	defer rows.Close()

	var drifted []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.CandidateID, &d.ElectionID, &d.Counter, &d.LedgerCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate tally: %w", err)
		}
		if d.Counter != d.LedgerCount {
			drifted = append(drifted, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range drifted {
		_, err := db.ExecContext(ctx, `
			UPDATE candidate SET vote_count = $1 WHERE id = $2
		`, d.LedgerCount, d.CandidateID)
		if err != nil {
			return drifted, fmt.Errorf("failed to repair tally for candidate %s: %w", d.CandidateID, err)
		}
	}

	return drifted, nil
}

// RunReconciler runs ReconcileTallies on an interval until ctx is
// cancelled. onDrift is invoked with the repaired rows (may be nil).
func RunReconciler(ctx context.Context, db *sql.DB, interval time.Duration, onDrift func([]Drift)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drifted, err := ReconcileTallies(ctx, db)
			if err != nil {
				slog.Error("tally reconciliation failed", "error", err)
				continue
			}
			if len(drifted) > 0 {
				slog.Error("tally drift detected and repaired",
					"candidates", len(drifted))
				if onDrift != nil {
					onDrift(drifted)
				}
			}
		}
	}
}
