// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"strings"

	"github.com/danielhkuo/electorate/models"
)

// NormalizeVoterID is the single normalization rule for voter-supplied
// identifiers, applied at roster write time and at vote/check time so the
// two sides can never diverge. Identifiers are trimmed but compared
// case-sensitively as given.
func NormalizeVoterID(voterID string) string {
	return strings.TrimSpace(voterID)
}

// loadElection fetches one election; sql.ErrNoRows passes through so
// callers can map it to a NotFound rejection.
func loadElection(db *sql.DB, electionID string) (models.Election, error) {
	var e models.Election
	var description, organization sql.NullString
	err := db.QueryRow(`
		SELECT id, title, description, organization, organizer_id,
		       start_at, end_at, voter_limit, created_at
		FROM election WHERE id = $1
	`, electionID).Scan(&e.ID, &e.Title, &description, &organization,
		&e.OrganizerID, &e.StartAt, &e.EndAt, &e.VoterLimit, &e.CreatedAt)
	if err != nil {
		return models.Election{}, err
	}
	e.Description = description.String
	e.Organization = organization.String
	return e, nil
}

// isEligible implements the open-unless-listed rule: an election with an
// empty roster accepts any identifier; otherwise the identifier must be
// on the roster.
func isEligible(db *sql.DB, electionID, voterID string) (bool, error) {
	var rosterSize int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM eligibility WHERE election_id = $1
	`, electionID).Scan(&rosterSize)
	if err != nil {
		return false, err
	}
	if rosterSize == 0 {
		return true, nil
	}

	var listed bool
	err = db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM eligibility
			WHERE election_id = $1 AND voter_id = $2
		)
	`, electionID, voterID).Scan(&listed)
	return listed, err
}

// votedPositions lists the position labels a voter has already voted for
// in an election, from the ballot ledger.
func votedPositions(db *sql.DB, electionID, voterID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT position FROM ballot
		WHERE election_id = $1 AND voter_id = $2
		ORDER BY cast_at
	`, electionID, voterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// electionTally returns the candidate list with live counts plus the
// total number of ballots in the ledger.
func electionTally(db *sql.DB, electionID string) ([]models.Candidate, int, error) {
	rows, err := db.Query(`
		SELECT id, election_id, name, position, vote_count
		FROM candidate WHERE election_id = $1
		ORDER BY position, name
	`, electionID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Position, &c.VoteCount); err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM ballot WHERE election_id = $1
	`, electionID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return candidates, total, nil
}

// distinctVoterCount backs the advisory capacity check.
func distinctVoterCount(db *sql.DB, electionID string) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(DISTINCT voter_id) FROM ballot WHERE election_id = $1
	`, electionID).Scan(&n)
	return n, err
}
