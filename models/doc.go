// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterOrganizerRequest: name, email
  - CreateElectionRequest: title, organization, window, voter_limit
  - AddCandidateRequest: name, position
  - AddVoterRequest: voter_id, name, email
  - CastVoteRequest: voter_id, candidate_id
  - CheckEligibilityRequest: voter_id

# Response Types

Types for JSON responses:

  - RegisterOrganizerResponse: organizer_id, account_key, shared_credits
  - CreateElectionResponse: election_id, admin_key
  - CastVoteResponse: message, position, total_votes
  - CheckEligibilityResponse: allowed, voted_positions
  - ImportVotersResponse: message, count
  - ErrorResponse: error (reason code), message, window/position detail

# Domain Types

Internal data structures:

  - Organizer: credit-metered account owning elections
  - Election: voting event with start/end window and voter capacity
  - Candidate: name plus a free-text position label; carries the
    denormalized vote count
  - Ballot: one accepted vote, unique per (election, voter, position)
  - EligibilityEntry: allow-list row; zero rows means an open election

# Live Channel Payloads

Events pushed over the per-election and per-organizer channels:

  - TallyEvent: refreshed candidate list plus total vote count
  - VoteActivityEvent: platform-wide "vote cast" ticker entry
  - CreditEvent: organizer credit balance change
  - ElectionUpdatedEvent: edited election document

# Constants

Window states:

	WindowUpcoming = "upcoming"
	WindowActive   = "active"
	WindowEnded    = "ended"

VoterLimitUnlimited (0) marks an election with no capacity cap.
*/
package models
