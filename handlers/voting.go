// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/electorate/auth"
	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/db"
	"github.com/danielhkuo/electorate/event"
	"github.com/danielhkuo/electorate/metrics"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/models"
	"github.com/danielhkuo/electorate/pubsub"
)

type VotingHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	publisher event.Publisher
	metrics   *metrics.AdmissionMetrics
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, pub event.Publisher, met *metrics.AdmissionMetrics) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, publisher: pub, metrics: met}
}

func (h *VotingHandler) reject(w http.ResponseWriter, statusCode int, body models.ErrorResponse) {
	h.metrics.VotesRejected.WithLabelValues(body.Error).Inc()
	middleware.RejectResponse(w, statusCode, body)
}

// checkWindow applies the window gate shared by CastVote and
// CheckEligibility and writes the rejection itself when the election is
// not active. Returns true when voting may proceed.
func (h *VotingHandler) checkWindow(w http.ResponseWriter, e models.Election, now time.Time) bool {
	switch ClassifyWindow(e.StartAt, e.EndAt, now) {
	case models.WindowUpcoming:
		start := e.StartAt
		h.reject(w, http.StatusForbidden, models.ErrorResponse{
			Error:     models.ReasonOutOfWindow,
			Message:   "Voting has not opened yet; it opens at " + start.Format(time.RFC3339),
			Status:    models.WindowUpcoming,
			StartDate: &start,
		})
		return false
	case models.WindowEnded:
		end := e.EndAt
		h.reject(w, http.StatusForbidden, models.ErrorResponse{
			Error:   models.ReasonOutOfWindow,
			Message: "Voting closed on " + end.Format(time.RFC3339),
			Status:  models.WindowEnded,
			EndDate: &end,
		})
		return false
	}
	return true
}

// CastVote handles POST /elections/:id/vote
//
// The gate sequence is fixed: window, capacity, eligibility, candidate,
// duplicate pre-check, then the transactional commit. The duplicate
// pre-check is advisory only; the UNIQUE(election_id, voter_id, position)
// constraint on the insert is what actually prevents double voting when
// two requests race (see db package).
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.AdmissionTime.Observe(time.Since(start).Seconds())
	}()

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voterID := NormalizeVoterID(req.VoterID)
	if voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	// Step 1: load election
	election, err := loadElection(h.db, electionID)
	if err == sql.ErrNoRows {
		h.reject(w, http.StatusNotFound, models.ErrorResponse{
			Error:   models.ReasonNotFound,
			Message: "Election not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to load election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Step 2: window gate
	if !h.checkWindow(w, election, time.Now()) {
		return
	}

	// Step 3: advisory capacity check. Voters already in the ledger do
	// not raise the distinct count, so a returning voter may still vote
	// for remaining positions at capacity. Under concurrency near the
	// limit this can overshoot: the soft cap is a documented property of
	// the storage model, which has no serializing counter.
	if election.VoterLimit != models.VoterLimitUnlimited {
		existing, err := votedPositions(h.db, electionID, voterID)
		if err != nil {
			slog.Error("failed to check voter history", "error", err, "election_id", electionID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if len(existing) == 0 {
			count, err := distinctVoterCount(h.db, electionID)
			if err != nil {
				slog.Error("failed to count voters", "error", err, "election_id", electionID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
			if count >= election.VoterLimit {
				h.reject(w, http.StatusForbidden, models.ErrorResponse{
					Error:   models.ReasonCapacityExceeded,
					Message: "This election has reached its voter limit",
				})
				return
			}
		}
	}

	// Step 4: eligibility gate
	eligible, err := isEligible(h.db, electionID, voterID)
	if err != nil {
		slog.Error("failed to check eligibility", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !eligible {
		h.reject(w, http.StatusForbidden, models.ErrorResponse{
			Error:   models.ReasonNotEligible,
			Message: "This voter ID is not on the eligibility list for this election",
		})
		return
	}

	// Step 5: load candidate; its position label drives the duplicate check
	var candidateName, position string
	err = h.db.QueryRow(`
		SELECT name, position FROM candidate
		WHERE id = $1 AND election_id = $2
	`, req.CandidateID, electionID).Scan(&candidateName, &position)
	if err == sql.ErrNoRows {
		h.reject(w, http.StatusNotFound, models.ErrorResponse{
			Error:   models.ReasonCandidateNotFound,
			Message: "Candidate not found in this election",
		})
		return
	}
	if err != nil {
		slog.Error("failed to load candidate", "error", err, "candidate_id", req.CandidateID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Step 6: duplicate pre-check (advisory; see constraint note above)
	var alreadyVoted bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM ballot
			WHERE election_id = $1 AND voter_id = $2 AND position = $3
		)
	`, electionID, voterID, position).Scan(&alreadyVoted)
	if err != nil {
		slog.Error("failed to check existing ballot", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if alreadyVoted {
		h.rejectAlreadyVoted(w, position)
		return
	}

	// Step 7: commit ballot insert + tally increment as one transaction
	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.AdminKeySalt)
	userAgent := r.UserAgent()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	ballotID := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO ballot (id, election_id, candidate_id, position, voter_id, cast_at, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ballotID, electionID, req.CandidateID, position, voterID, time.Now(), ipHash, userAgent)

	if err != nil {
		if db.IsUniqueViolation(err) {
			// Lost the race to a concurrent request for the same
			// position; report it exactly like the pre-check would have
			h.rejectAlreadyVoted(w, position)
			return
		}
		slog.Error("failed to insert ballot", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	res, err := tx.Exec(`
		UPDATE candidate SET vote_count = vote_count + 1 WHERE id = $1
	`, req.CandidateID)
	if err == nil {
		var affected int64
		affected, err = res.RowsAffected()
		if err == nil && affected != 1 {
			err = sql.ErrNoRows
		}
	}
	if err != nil {
		// The rollback keeps ledger and tally consistent, but a counter
		// that cannot be incremented for an existing candidate means
		// something is structurally wrong; surface it loudly.
		slog.Error("tally increment failed, rolling back ballot",
			"error", err, "election_id", electionID, "candidate_id", req.CandidateID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit vote", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	h.metrics.VotesAccepted.WithLabelValues(electionID).Inc()
	slog.Info("vote cast",
		"election_id", electionID,
		"candidate", candidateName,
		"position", position,
		"ballot_id", ballotID,
	)

	// Step 8: best-effort side effects; the vote is durable from here on
	totalVotes := h.afterCommit(r.Context(), election)

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Message:    "Vote recorded for " + position,
		Position:   position,
		TotalVotes: totalVotes,
	})
}

func (h *VotingHandler) rejectAlreadyVoted(w http.ResponseWriter, position string) {
	h.reject(w, http.StatusBadRequest, models.ErrorResponse{
		Error:    models.ReasonAlreadyVoted,
		Message:  "You have already voted for the position " + position,
		Position: position,
	})
}

// afterCommit runs the post-commit side effects: credit decrement for
// credit-metered elections, then fan-out. Failures here are logged and
// never fail the vote. Returns the refreshed total vote count.
func (h *VotingHandler) afterCommit(ctx context.Context, election models.Election) int {
	newBalance, metered := h.spendOneCredit(election)

	candidates, totalVotes, err := electionTally(h.db, election.ID)
	if err != nil {
		slog.Warn("failed to load tally for fan-out", "error", err, "election_id", election.ID)
		// The ballot is already committed; fall back to a direct ledger
		// count rather than reporting a zero total, and failing that, to
		// the one ballot known to exist.
		if cErr := h.db.QueryRow(`
			SELECT COUNT(*) FROM ballot WHERE election_id = $1
		`, election.ID).Scan(&totalVotes); cErr != nil {
			slog.Warn("failed to count ballots after commit", "error", cErr, "election_id", election.ID)
			totalVotes = 1
		}
		return totalVotes
	}

	event.Notify(ctx, h.publisher, pubsub.ElectionTopic(election.ID), models.TallyEvent{
		Type:       "tally",
		ElectionID: election.ID,
		Candidates: candidates,
		TotalVotes: totalVotes,
	})
	event.Notify(ctx, h.publisher, pubsub.ActivityTopic, models.VoteActivityEvent{
		Type:          "vote_cast",
		ElectionID:    election.ID,
		ElectionTitle: election.Title,
		TotalVotes:    totalVotes,
	})
	if metered {
		event.Notify(ctx, h.publisher, pubsub.OrganizerTopic(election.OrganizerID), models.CreditEvent{
			Type:          "credits",
			Reason:        "vote_cast",
			OrganizerID:   election.OrganizerID,
			ElectionTitle: election.Title,
			SharedCredits: newBalance,
		})
	}

	return totalVotes
}

// spendOneCredit decrements the organizer's shared credit balance for a
// credit-metered election. Organizers on an unlimited package are not
// charged. Returns the new balance and whether a charge applied.
func (h *VotingHandler) spendOneCredit(election models.Election) (int, bool) {
	if election.VoterLimit == models.VoterLimitUnlimited {
		return 0, false
	}

	res, err := h.db.Exec(`
		UPDATE organizer
		SET shared_credits = shared_credits - 1
		WHERE id = $1 AND unlimited = 0 AND shared_credits > 0
	`, election.OrganizerID)
	if err != nil {
		h.metrics.CreditFailures.Inc()
		slog.Warn("credit decrement failed after committed vote",
			"error", err, "organizer_id", election.OrganizerID, "election_id", election.ID)
		return 0, false
	}
	if affected, err := res.RowsAffected(); err != nil || affected == 0 {
		// Unlimited package or an already-empty balance; nothing charged
		var unlimited bool
		if qerr := h.db.QueryRow(`SELECT unlimited FROM organizer WHERE id = $1`,
			election.OrganizerID).Scan(&unlimited); qerr == nil && !unlimited {
			h.metrics.CreditFailures.Inc()
			slog.Warn("vote committed with no credit available",
				"organizer_id", election.OrganizerID, "election_id", election.ID)
		}
		return 0, false
	}

	var balance int
	if err := h.db.QueryRow(`SELECT shared_credits FROM organizer WHERE id = $1`,
		election.OrganizerID).Scan(&balance); err != nil {
		slog.Warn("failed to read credit balance", "error", err, "organizer_id", election.OrganizerID)
		return 0, true
	}
	return balance, true
}

// CheckEligibility handles POST /elections/:id/check
//
// Runs the same window and eligibility gates as CastVote without touching
// capacity or the ledger, and reports the positions this voter has
// already voted for so the client can grey them out.
func (h *VotingHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.CheckEligibilityRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voterID := NormalizeVoterID(req.VoterID)
	if voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}

	election, err := loadElection(h.db, electionID)
	if err == sql.ErrNoRows {
		h.reject(w, http.StatusNotFound, models.ErrorResponse{
			Error:   models.ReasonNotFound,
			Message: "Election not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to load election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !h.checkWindow(w, election, time.Now()) {
		return
	}

	eligible, err := isEligible(h.db, electionID, voterID)
	if err != nil {
		slog.Error("failed to check eligibility", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !eligible {
		h.reject(w, http.StatusForbidden, models.ErrorResponse{
			Error:   models.ReasonNotEligible,
			Message: "This voter ID is not on the eligibility list for this election",
		})
		return
	}

	positions, err := votedPositions(h.db, electionID, voterID)
	if err != nil {
		slog.Error("failed to list voted positions", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CheckEligibilityResponse{
		Allowed:        true,
		VotedPositions: positions,
	})
}
