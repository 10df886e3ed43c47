// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/electorate/auth"
	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/db"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/models"
)

type EligibilityHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEligibilityHandler(db *sql.DB, cfg cliparse.Config) *EligibilityHandler {
	return &EligibilityHandler{db: db, cfg: cfg}
}

// Column-name synonym sets for the roster import. Matched
// case-insensitively after trimming.
var (
	idHeaders    = []string{"student id", "studentid", "student_id", "voter id", "voter_id", "voterid", "id"}
	nameHeaders  = []string{"name", "full name", "fullname", "student name"}
	emailHeaders = []string{"email", "e-mail", "mail", "email address"}
)

func matchHeader(header string, synonyms []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, s := range synonyms {
		if h == s {
			return true
		}
	}
	return false
}

// ImportVoters handles POST /elections/:id/voters/import
//
// Accepts a CSV upload with tolerant header matching. Rows without an
// identifier are dropped; identifiers already on the roster (or repeated
// within the batch) are skipped without failing the import. The response
// reports how many entries were actually added.
func (h *EligibilityHandler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	if _, err := loadElection(h.db, electionID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	} else if err != nil {
		slog.Error("failed to load election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file upload is required")
		return
	}
	defer file.Close()
	// Multipart uploads may spill to disk; drop the temp artifacts on
	// every exit path, including partial-duplicate and hard failure.
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				slog.Warn("failed to remove upload artifacts", "error", err)
			}
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is empty or not valid CSV")
		return
	}

	idCol, nameCol, emailCol := -1, -1, -1
	for i, col := range header {
		switch {
		case idCol == -1 && matchHeader(col, idHeaders):
			idCol = i
		case nameCol == -1 && matchHeader(col, nameHeaders):
			nameCol = i
		case emailCol == -1 && matchHeader(col, emailHeaders):
			emailCol = i
		}
	}
	if idCol == -1 {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			"no identifier column found (expected a header like 'student id')")
		return
	}

	added := 0
	skipped := 0
	now := time.Now()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "malformed CSV row: "+err.Error())
			return
		}

		if idCol >= len(record) {
			skipped++
			continue
		}
		voterID := NormalizeVoterID(record[idCol])
		if voterID == "" {
			// Rows without an identifier are silently dropped
			skipped++
			continue
		}

		var name, email string
		if nameCol >= 0 && nameCol < len(record) {
			name = strings.TrimSpace(record[nameCol])
		}
		if emailCol >= 0 && emailCol < len(record) {
			email = strings.TrimSpace(record[emailCol])
		}

		_, err = h.db.Exec(`
			INSERT INTO eligibility (election_id, voter_id, name, email, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, electionID, voterID, name, email, now)
		if err != nil {
			if db.IsUniqueViolation(err) {
				skipped++
				continue
			}
			slog.Error("roster import failed", "error", err, "election_id", electionID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import voters")
			return
		}
		added++
	}

	slog.Info("roster imported",
		"election_id", electionID,
		"added", added,
		"skipped", skipped,
	)

	middleware.JSONResponse(w, http.StatusOK, models.ImportVotersResponse{
		Message: "Imported " + humanize.Comma(int64(added)) + " voters (" +
			humanize.Comma(int64(skipped)) + " rows skipped)",
		Count: added,
	})
}

// AddVoter handles POST /elections/:id/voters
func (h *EligibilityHandler) AddVoter(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.AddVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voterID := NormalizeVoterID(req.VoterID)
	if voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}

	_, err := h.db.Exec(`
		INSERT INTO eligibility (election_id, voter_id, name, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, electionID, voterID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "This voter ID is already on the list")
			return
		}
		slog.Error("failed to add voter", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add voter")
		return
	}

	slog.Info("voter added to roster", "election_id", electionID)
	middleware.JSONResponse(w, http.StatusCreated, models.EligibilityEntry{
		ElectionID: electionID,
		VoterID:    voterID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
	})
}

// ListVoters handles GET /elections/:id/voters
func (h *EligibilityHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	rows, err := h.db.Query(`
		SELECT voter_id, name, email FROM eligibility
		WHERE election_id = $1 ORDER BY voter_id
	`, electionID)
	if err != nil {
		slog.Error("failed to list roster", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.EligibilityEntry{}
	for rows.Next() {
		var e models.EligibilityEntry
		var name, email sql.NullString
		if err := rows.Scan(&e.VoterID, &name, &email); err != nil {
			slog.Error("failed to scan roster row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.ElectionID = electionID
		e.Name = name.String
		e.Email = email.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read roster", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}

// DeleteVoter handles DELETE /elections/:id/voters/:voterId
func (h *EligibilityHandler) DeleteVoter(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	voterID := NormalizeVoterID(r.PathValue("voterId"))
	if electionID == "" || voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id and voter id are required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM eligibility WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID)
	if err != nil {
		slog.Error("failed to delete roster entry", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete voter")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter not found on the list")
		return
	}

	slog.Info("voter removed from roster", "election_id", electionID)
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Voter removed"})
}
