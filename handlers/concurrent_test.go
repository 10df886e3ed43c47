// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/electorate/models"
	"github.com/danielhkuo/electorate/testutil"
)

// TestConcurrentDuplicateVotes verifies that simultaneous identical votes
// from one voter produce exactly one ballot: the UNIQUE constraint, not
// the advisory pre-check, is what decides the race
func TestConcurrentDuplicateVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := newTestVotingHandler(t, db)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, _ := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Alice Chen", "President")

	numRequests := 8
	var successCount atomic.Int32
	var duplicateCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(models.CastVoteRequest{
				VoterID:     "racer",
				CandidateID: candidateID,
			})
			req := httptest.NewRequest("POST", "/elections/"+electionID+"/vote", bytes.NewReader(body))
			req.SetPathValue("id", electionID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CastVote(w, req)

			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusBadRequest:
				var errResp models.ErrorResponse
				if json.NewDecoder(w.Body).Decode(&errResp) == nil && errResp.Error == models.ReasonAlreadyVoted {
					duplicateCount.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful vote, got %d", successCount.Load())
	}
	if int(duplicateCount.Load()) != numRequests-1 {
		t.Errorf("Expected %d already-voted rejections, got %d", numRequests-1, duplicateCount.Load())
	}

	// The ledger and the denormalized counter must both show one vote
	var ballots, count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ballot WHERE election_id = $1`, electionID).Scan(&ballots); err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	if err := db.QueryRow(`SELECT vote_count FROM candidate WHERE id = $1`, candidateID).Scan(&count); err != nil {
		t.Fatalf("Failed to read tally: %v", err)
	}
	if ballots != 1 {
		t.Errorf("Expected 1 ballot in the ledger, got %d", ballots)
	}
	if count != 1 {
		t.Errorf("Expected vote_count 1, got %d", count)
	}
}

// TestConcurrentDistinctVoters verifies that concurrent votes from
// different voters all land and the tally stays consistent
func TestConcurrentDistinctVoters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := newTestVotingHandler(t, db)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, _ := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Alice Chen", "President")

	numVoters := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body, _ := json.Marshal(models.CastVoteRequest{
				VoterID:     "voter-" + strconv.Itoa(n),
				CandidateID: candidateID,
			})
			req := httptest.NewRequest("POST", "/elections/"+electionID+"/vote", bytes.NewReader(body))
			req.SetPathValue("id", electionID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CastVote(w, req)

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	var distinct, count int
	if err := db.QueryRow(`SELECT COUNT(DISTINCT voter_id) FROM ballot WHERE election_id = $1`, electionID).Scan(&distinct); err != nil {
		t.Fatalf("Failed to count voters: %v", err)
	}
	if err := db.QueryRow(`SELECT vote_count FROM candidate WHERE id = $1`, candidateID).Scan(&count); err != nil {
		t.Fatalf("Failed to read tally: %v", err)
	}
	if distinct != numVoters {
		t.Errorf("Expected %d distinct voters, got %d", numVoters, distinct)
	}
	if count != numVoters {
		t.Errorf("Expected vote_count %d, got %d", numVoters, count)
	}
}
