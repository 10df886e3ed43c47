// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/danielhkuo/electorate/auth"
	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/models"
	"github.com/danielhkuo/electorate/pubsub"
)

type LiveHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	hub *pubsub.Hub
}

func NewLiveHandler(db *sql.DB, cfg cliparse.Config, hub *pubsub.Hub) *LiveHandler {
	return &LiveHandler{db: db, cfg: cfg, hub: hub}
}

// SubscribeElection handles GET /elections/:id/live
//
// Upgrades to a websocket subscribed to the election's public channel.
// The current tally is pushed immediately so clients render without
// waiting for the next vote.
func (h *LiveHandler) SubscribeElection(w http.ResponseWriter, r *http.Request) {
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

	candidates, totalVotes, err := electionTally(h.db, electionID)
	if err != nil {
		slog.Error("failed to load tally", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err, "election_id", electionID)
		return
	}

	client := h.hub.Subscribe(conn, pubsub.ElectionTopic(electionID))

	snapshot, err := json.Marshal(models.TallyEvent{
		Type:       "tally",
		ElectionID: election.ID,
		Candidates: candidates,
		TotalVotes: totalVotes,
	})
	if err == nil {
		select {
		case client.Send <- snapshot:
		default:
		}
	}

	slog.Info("live subscriber attached", "election_id", electionID)
}

// SubscribeOrganizer handles GET /organizers/:id/live
//
// The organizer's private channel; requires the account key, accepted as
// a header or a query parameter since browsers cannot set headers on
// websocket upgrades.
func (h *LiveHandler) SubscribeOrganizer(w http.ResponseWriter, r *http.Request) {
	organizerID := r.PathValue("id")
	if organizerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "organizer id is required")
		return
	}

	accountKey := r.Header.Get("X-Account-Key")
	if accountKey == "" {
		accountKey = r.URL.Query().Get("key")
	}
	if err := auth.ValidateAccountKey(organizerID, accountKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid account key")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err, "organizer_id", organizerID)
		return
	}

	h.hub.Subscribe(conn, pubsub.OrganizerTopic(organizerID))
	slog.Info("organizer channel attached", "organizer_id", organizerID)
}

// SubscribeActivity handles GET /live/activity, the platform-wide
// "vote cast" ticker.
func (h *LiveHandler) SubscribeActivity(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	h.hub.Subscribe(conn, pubsub.ActivityTopic)
}
