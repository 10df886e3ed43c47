// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/event"
	"github.com/danielhkuo/electorate/handlers"
	"github.com/danielhkuo/electorate/metrics"
	"github.com/danielhkuo/electorate/middleware"
	"github.com/danielhkuo/electorate/pubsub"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, hub *pubsub.Hub, pub event.Publisher, met *metrics.AdmissionMetrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	organizerHandler := handlers.NewOrganizerHandler(db, cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg, pub)
	eligibilityHandler := handlers.NewEligibilityHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, pub, met)
	liveHandler := handlers.NewLiveHandler(db, cfg, hub)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Organizer accounts
	mux.HandleFunc("POST /organizers", middleware.WithLogging(organizerHandler.Register))
	mux.HandleFunc("GET /organizers/{id}/credits", middleware.WithLogging(organizerHandler.GetCredits))

	// Election management (organizer operations)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("PUT /elections/{id}", middleware.WithLogging(electionHandler.UpdateElection))
	mux.HandleFunc("DELETE /elections/{id}", middleware.WithLogging(electionHandler.DeleteElection))
	mux.HandleFunc("POST /elections/{id}/candidates", middleware.WithLogging(electionHandler.AddCandidate))

	// Eligibility roster (organizer operations)
	mux.HandleFunc("POST /elections/{id}/voters/import", middleware.WithLogging(eligibilityHandler.ImportVoters))
	mux.HandleFunc("POST /elections/{id}/voters", middleware.WithLogging(eligibilityHandler.AddVoter))
	mux.HandleFunc("GET /elections/{id}/voters", middleware.WithLogging(eligibilityHandler.ListVoters))
	mux.HandleFunc("DELETE /elections/{id}/voters/{voterId}", middleware.WithLogging(eligibilityHandler.DeleteVoter))

	// Voting operations (public)
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("POST /elections/{id}/check", middleware.WithLogging(votingHandler.CheckEligibility))
	mux.HandleFunc("POST /elections/{id}/vote", middleware.WithLogging(votingHandler.CastVote))

	// Live channels (websocket; no logging wrapper, connections are long-lived)
	mux.HandleFunc("GET /elections/{id}/live", liveHandler.SubscribeElection)
	mux.HandleFunc("GET /organizers/{id}/live", liveHandler.SubscribeOrganizer)
	mux.HandleFunc("GET /live/activity", liveHandler.SubscribeActivity)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("electorate API v1"))
	})

	return mux
}
