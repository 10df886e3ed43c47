// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the electorate API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, hub, publisher, metrics)

# Endpoints

Health and monitoring:

	GET /health
	GET /metrics

Organizer accounts:

	POST /organizers                - Register account
	GET  /organizers/{id}/credits   - Credit balance (requires X-Account-Key)

Election management (requires X-Account-Key or X-Admin-Key):

	POST   /elections                  - Create election
	PUT    /elections/{id}             - Update title/description/organization
	DELETE /elections/{id}             - Delete election
	POST   /elections/{id}/candidates  - Add candidate

Eligibility roster (requires X-Admin-Key):

	POST   /elections/{id}/voters/import     - CSV import
	POST   /elections/{id}/voters            - Add single voter
	GET    /elections/{id}/voters            - List roster
	DELETE /elections/{id}/voters/{voterId}  - Remove voter

Voting (public):

	GET  /elections/{id}       - Election document with live tally
	POST /elections/{id}/check - Eligibility pre-check
	POST /elections/{id}/vote  - Cast a vote

Live channels (websocket):

	GET /elections/{id}/live  - Per-election tally stream
	GET /organizers/{id}/live - Organizer credit/activity stream
	GET /live/activity        - Platform-wide vote ticker

# Handler Initialization

The router creates handler instances with dependency injection:

	organizerHandler := handlers.NewOrganizerHandler(db, cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg, pub)
	eligibilityHandler := handlers.NewEligibilityHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, pub, met)
	liveHandler := handlers.NewLiveHandler(db, cfg, hub)

All handlers receive the database connection and configuration; the
voting path additionally receives the event publisher and admission
metrics, and the live handler receives the websocket hub.
*/
package router
