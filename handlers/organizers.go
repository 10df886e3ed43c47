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
	"github.com/danielhkuo/electorate/db"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/models"
)

// New accounts start with a small shared-credit grant; further credits
// arrive through the billing system, which only ever touches the
// organizer row from outside this service.
const signupCreditGrant = 25

type OrganizerHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewOrganizerHandler(db *sql.DB, cfg cliparse.Config) *OrganizerHandler {
	return &OrganizerHandler{db: db, cfg: cfg}
}

// Register handles POST /organizers
func (h *OrganizerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterOrganizerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	organizerID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate organizer ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register organizer")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO organizer (id, name, email, shared_credits, unlimited, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, organizerID, req.Name, req.Email, signupCreditGrant, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		slog.Error("failed to insert organizer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register organizer")
		return
	}

	slog.Info("organizer registered", "organizer_id", organizerID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterOrganizerResponse{
		OrganizerID:   organizerID,
		AccountKey:    auth.GenerateAccountKey(organizerID, h.cfg.AdminKeySalt),
		SharedCredits: signupCreditGrant,
	})
}

// GetCredits handles GET /organizers/:id/credits
func (h *OrganizerHandler) GetCredits(w http.ResponseWriter, r *http.Request) {
	organizerID := r.PathValue("id")
	if organizerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "organizer id is required")
		return
	}

	accountKey := r.Header.Get("X-Account-Key")
	if err := auth.ValidateAccountKey(organizerID, accountKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid account key")
		return
	}

	var balance int
	var unlimited bool
	err := h.db.QueryRow(`
		SELECT shared_credits, unlimited FROM organizer WHERE id = $1
	`, organizerID).Scan(&balance, &unlimited)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Organizer not found")
		return
	}
	if err != nil {
		slog.Error("failed to load organizer", "error", err, "organizer_id", organizerID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CreditBalanceResponse{
		OrganizerID:   organizerID,
		SharedCredits: balance,
		Unlimited:     unlimited,
	})
}
