// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/electorate/auth"
	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/db"
	"github.com/danielhkuo/electorate/event"
	"github.com/danielhkuo/electorate/metrics"
	"github.com/danielhkuo/electorate/pubsub"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. Every test gets its own database, so no cleanup between tests
// is needed.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3419,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
	}
}

// NewTestHub starts a hub whose Run loop stops when the test ends
func NewTestHub(t *testing.T) *pubsub.Hub {
	t.Helper()

	hub := pubsub.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// NewTestPublisher returns a local publisher backed by a test hub
func NewTestPublisher(t *testing.T) event.Publisher {
	t.Helper()
	return event.NewLocalPublisher(NewTestHub(t))
}

// NewTestMetrics registers admission metrics on a private registry so
// repeated construction across tests never collides
func NewTestMetrics() *metrics.AdmissionMetrics {
	return metrics.NewAdmissionMetrics("electorate_test", prometheus.NewRegistry())
}

// CreateTestOrganizer inserts an organizer account and returns its ID
// and account key
func CreateTestOrganizer(t *testing.T, conn *sql.DB, cfg cliparse.Config, credits int, unlimited bool) (organizerID, accountKey string) {
	t.Helper()

	organizerID, _ = auth.GenerateID(16)
	accountKey = auth.GenerateAccountKey(organizerID, cfg.AdminKeySalt)

	unlimitedVal := 0
	if unlimited {
		unlimitedVal = 1
	}
	_, err := conn.Exec(`
		INSERT INTO organizer (id, name, email, shared_credits, unlimited, created_at)
		VALUES ($1, 'Test Organizer', $2, $3, $4, $5)
	`, organizerID, organizerID+"@example.com", credits, unlimitedVal, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test organizer: %v", err)
	}

	return organizerID, accountKey
}

// CreateTestElection inserts an election and returns its ID and admin key
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, organizerID string, startAt, endAt time.Time, voterLimit int) (electionID, adminKey string) {
	t.Helper()

	electionID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, organization, organizer_id, start_at, end_at, voter_limit, created_at)
		VALUES ($1, 'Test Election', 'A test election', 'Test Org', $2, $3, $4, $5, $6)
	`, electionID, organizerID, startAt, endAt, voterLimit, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey
}

// AddTestCandidate adds a candidate and returns its ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, name, position string) string {
	t.Helper()

	candidateID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, name, position, vote_count)
		VALUES ($1, $2, $3, $4, 0)
	`, candidateID, electionID, name, position)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// AddTestEligibility puts a voter ID on an election's roster
func AddTestEligibility(t *testing.T, conn *sql.DB, electionID, voterID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO eligibility (election_id, voter_id, name, email, created_at)
		VALUES ($1, $2, '', '', $3)
	`, electionID, voterID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create eligibility entry: %v", err)
	}
}

// CastTestVote writes a ballot directly, bypassing the handler, for
// tests that need pre-existing ledger state
func CastTestVote(t *testing.T, conn *sql.DB, electionID, candidateID, position, voterID string) {
	t.Helper()

	ballotID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO ballot (id, election_id, candidate_id, position, voter_id, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ballotID, electionID, candidateID, position, voterID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}
	if _, err := conn.Exec(`UPDATE candidate SET vote_count = vote_count + 1 WHERE id = $1`, candidateID); err != nil {
		t.Fatalf("Failed to bump test tally: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
