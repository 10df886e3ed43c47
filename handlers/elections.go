// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/electorate/auth"
	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/event"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/models"
	"github.com/danielhkuo/electorate/pubsub"
)

type ElectionHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	publisher event.Publisher
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config, pub event.Publisher) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg, publisher: pub}
}

// CreateElection handles POST /elections
//
// Requires the organizer's account key. A credit-metered election
// (finite voter limit) can only be created while the organizer holds
// credits or an unlimited grant; the actual spend happens per vote.
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.OrganizerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "organizer_id is required")
		return
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_at and end_at are required")
		return
	}
	if !req.StartAt.Before(req.EndAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_at must be before end_at")
		return
	}
	if req.VoterLimit < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_limit must be zero (unlimited) or positive")
		return
	}

	accountKey := r.Header.Get("X-Account-Key")
	if err := auth.ValidateAccountKey(req.OrganizerID, accountKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid account key")
		return
	}

	var sharedCredits int
	var unlimited bool
	err := h.db.QueryRow(`
		SELECT shared_credits, unlimited FROM organizer WHERE id = $1
	`, req.OrganizerID).Scan(&sharedCredits, &unlimited)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Organizer not found")
		return
	}
	if err != nil {
		slog.Error("failed to load organizer", "error", err, "organizer_id", req.OrganizerID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.VoterLimit != models.VoterLimitUnlimited && !unlimited && sharedCredits == 0 {
		middleware.ErrorResponse(w, http.StatusForbidden, "No credits available for a credit-metered election")
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}
	adminKey := auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt)

	_, err = h.db.Exec(`
		INSERT INTO election (id, title, description, organization, organizer_id, start_at, end_at, voter_limit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, electionID, req.Title, req.Description, req.Organization, req.OrganizerID,
		req.StartAt.UTC(), req.EndAt.UTC(), req.VoterLimit, time.Now())
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created",
		"election_id", electionID,
		"organizer_id", req.OrganizerID,
		"voter_limit", req.VoterLimit,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   adminKey,
	})
}

// GetElection handles GET /elections/:id
//
// Returns the election document with embedded candidates (live counts)
// and the voters array. Clients display len(voters) as the total vote
// count, so the array carries one entry per ledger row.
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	election, err := loadElection(h.db, electionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to load election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidates, _, err := electionTally(h.db, electionID)
	if err != nil {
		slog.Error("failed to load candidates", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT voter_id, position, cast_at FROM ballot
		WHERE election_id = $1 ORDER BY cast_at
	`, electionID)
	if err != nil {
		slog.Error("failed to load ballots", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	voters := []models.BallotRef{}
	for rows.Next() {
		var b models.BallotRef
		if err := rows.Scan(&b.VoterID, &b.Position, &b.CastAt); err != nil {
			slog.Error("failed to scan ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		voters = append(voters, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionDocument{
		Election:   election,
		Candidates: candidates,
		Voters:     voters,
	})
}

// UpdateElection handles PUT /elections/:id
//
// Only the descriptive fields are editable. The voting window and
// capacity are fixed at creation: retuning them under live ballots would
// invalidate votes already admitted under the old rules.
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
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

	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	res, err := h.db.Exec(`
		UPDATE election SET title = $1, description = $2, organization = $3
		WHERE id = $4
	`, req.Title, req.Description, req.Organization, electionID)
	if err != nil {
		slog.Error("failed to update election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	election, err := loadElection(h.db, electionID)
	if err != nil {
		slog.Error("failed to reload election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("election updated", "election_id", electionID)

	// Push the edited document to live subscribers
	event.Notify(r.Context(), h.publisher, pubsub.ElectionTopic(electionID), models.ElectionUpdatedEvent{
		Type:     "election_updated",
		Election: election,
	})

	middleware.JSONResponse(w, http.StatusOK, election)
}

// DeleteElection handles DELETE /elections/:id
//
// Cascade removal of candidates, ballots, and the eligibility roster is
// delegated to the schema's foreign keys.
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.db.Exec(`DELETE FROM election WHERE id = $1`, electionID)
	if err != nil {
		slog.Error("failed to delete election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete election")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	slog.Info("election deleted", "election_id", electionID)
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Election deleted"})
}

// AddCandidate handles POST /elections/:id/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
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

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Position == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "position is required")
		return
	}

	// Election must exist before attaching candidates
	if _, err := loadElection(h.db, electionID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	} else if err != nil {
		slog.Error("failed to load election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidateID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add candidate")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO candidate (id, election_id, name, position, vote_count)
		VALUES ($1, $2, $3, $4, 0)
	`, candidateID, electionID, req.Name, req.Position)
	if err != nil {
		slog.Error("failed to insert candidate", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add candidate")
		return
	}

	slog.Info("candidate added",
		"election_id", electionID,
		"candidate_id", candidateID,
		"position", req.Position,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}
