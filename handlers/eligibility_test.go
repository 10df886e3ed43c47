// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/electorate/models"
	"github.com/danielhkuo/electorate/testutil"
)

func importCSVRequest(t *testing.T, electionID, adminKey, csvContent string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "roster.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvContent)); err != nil {
		t.Fatalf("Failed to write CSV content: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/elections/"+electionID+"/voters/import", &buf)
	req.SetPathValue("id", electionID)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Admin-Key", adminKey)
	return req
}

func TestImportVoters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)

	csvContent := "Student ID,Name,Email\n" +
		"s100,Alice Chen,alice@example.com\n" +
		"s101,Bob Park,bob@example.com\n" +
		",No Identifier,nobody@example.com\n" +
		"s100,Alice Again,alice2@example.com\n" +
		"  s102  ,Cara Diaz,cara@example.com\n"

	req := importCSVRequest(t, electionID, adminKey, csvContent)
	w := httptest.NewRecorder()
	handler.ImportVoters(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.ImportVotersResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("Expected 3 imported voters, got %d", resp.Count)
	}

	var rosterSize int
	if err := db.QueryRow(`SELECT COUNT(*) FROM eligibility WHERE election_id = $1`, electionID).Scan(&rosterSize); err != nil {
		t.Fatalf("Failed to count roster: %v", err)
	}
	if rosterSize != 3 {
		t.Errorf("Expected 3 roster entries, got %d", rosterSize)
	}

	// The identifier with surrounding whitespace is stored trimmed
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM eligibility WHERE election_id = $1 AND voter_id = 's102')
	`, electionID).Scan(&exists)
	if err != nil {
		t.Fatalf("Failed to check roster entry: %v", err)
	}
	if !exists {
		t.Error("Expected trimmed voter ID 's102' on the roster")
	}

	t.Run("re-import skips existing entries", func(t *testing.T) {
		req := importCSVRequest(t, electionID, adminKey, "Student ID\ns100\ns103\n")
		w := httptest.NewRecorder()
		handler.ImportVoters(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var resp models.ImportVotersResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("Expected 1 new entry, got %d", resp.Count)
		}
	})
}

func TestImportVotersHeaderVariants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)
	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)

	tests := []struct {
		name   string
		header string
	}{
		{"canonical header", "student id"},
		{"underscore form", "voter_id"},
		{"bare id", "ID"},
		{"uppercase with spaces", " Student ID "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
				time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)

			req := importCSVRequest(t, electionID, adminKey, tt.header+"\ns100\n")
			w := httptest.NewRecorder()
			handler.ImportVoters(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
			}

			var resp models.ImportVotersResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Count != 1 {
				t.Errorf("Expected 1 imported voter, got %d", resp.Count)
			}
		})
	}
}

func TestImportVotersFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)

	t.Run("invalid admin key", func(t *testing.T) {
		req := importCSVRequest(t, electionID, "wrong-key", "student id\ns100\n")
		w := httptest.NewRecorder()
		handler.ImportVoters(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/elections/"+electionID+"/voters/import", nil)
		req.SetPathValue("id", electionID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.ImportVoters(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("no identifier column", func(t *testing.T) {
		req := importCSVRequest(t, electionID, adminKey, "Name,Email\nAlice,alice@example.com\n")
		w := httptest.NewRecorder()
		handler.ImportVoters(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("empty file", func(t *testing.T) {
		req := importCSVRequest(t, electionID, adminKey, "")
		w := httptest.NewRecorder()
		handler.ImportVoters(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestAddVoter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)

	addVoter := func(key string, reqBody models.AddVoterRequest) *httptest.ResponseRecorder {
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest("POST", "/elections/"+electionID+"/voters", bytes.NewReader(body))
		req.SetPathValue("id", electionID)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Key", key)
		w := httptest.NewRecorder()
		handler.AddVoter(w, req)
		return w
	}

	t.Run("valid voter", func(t *testing.T) {
		w := addVoter(adminKey, models.AddVoterRequest{VoterID: "s100", Name: "Alice Chen"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("duplicate voter", func(t *testing.T) {
		w := addVoter(adminKey, models.AddVoterRequest{VoterID: "s100"})
		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("missing voter_id", func(t *testing.T) {
		w := addVoter(adminKey, models.AddVoterRequest{Name: "No ID"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid admin key", func(t *testing.T) {
		w := addVoter("wrong-key", models.AddVoterRequest{VoterID: "s101"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})
}

func TestListVoters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	testutil.AddTestEligibility(t, db, electionID, "s100")
	testutil.AddTestEligibility(t, db, electionID, "s101")

	req := httptest.NewRequest("GET", "/elections/"+electionID+"/voters", nil)
	req.SetPathValue("id", electionID)
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()
	handler.ListVoters(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var entries []models.EligibilityEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 roster entries, got %d", len(entries))
	}

	t.Run("invalid admin key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/elections/"+electionID+"/voters", nil)
		req.SetPathValue("id", electionID)
		req.Header.Set("X-Admin-Key", "wrong-key")
		w := httptest.NewRecorder()
		handler.ListVoters(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})
}

func TestDeleteVoter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewEligibilityHandler(db, cfg)

	organizerID, _ := testutil.CreateTestOrganizer(t, db, cfg, 25, false)
	electionID, adminKey := testutil.CreateTestElection(t, db, cfg, organizerID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	testutil.AddTestEligibility(t, db, electionID, "s100")

	deleteVoter := func(voterID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("DELETE", "/elections/"+electionID+"/voters/"+voterID, nil)
		req.SetPathValue("id", electionID)
		req.SetPathValue("voterId", voterID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.DeleteVoter(w, req)
		return w
	}

	t.Run("existing voter", func(t *testing.T) {
		w := deleteVoter("s100")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var remaining int
		if err := db.QueryRow(`SELECT COUNT(*) FROM eligibility WHERE election_id = $1`, electionID).Scan(&remaining); err != nil {
			t.Fatalf("Failed to count roster: %v", err)
		}
		if remaining != 0 {
			t.Errorf("Expected empty roster, got %d entries", remaining)
		}
	})

	t.Run("missing voter", func(t *testing.T) {
		w := deleteVoter("s999")
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}
