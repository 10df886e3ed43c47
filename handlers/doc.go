// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the electorate API.

# Handler Types

Each handler is a struct with its dependencies injected via constructor:

  - OrganizerHandler: account registration and credit balance
  - ElectionHandler: election lifecycle and candidates
  - EligibilityHandler: voter roster import and management
  - VotingHandler: the vote admission pipeline and eligibility pre-check
  - LiveHandler: websocket subscriptions

# Vote Admission

CastVote runs a fixed gate sequence:

 1. load election (404)
 2. window gate, inclusive bounds (403, carries the boundary timestamp)
 3. advisory capacity check against distinct ledger voters (403)
 4. eligibility gate; empty roster means open election (403)
 5. candidate lookup; its position drives the duplicate check (404)
 6. duplicate pre-check for (election, voter, position) (400)
 7. transactional commit: ballot insert + candidate counter increment

The pre-check in step 6 is best-effort. When two requests race, the
loser's insert hits the ledger's UNIQUE constraint and is reported as the
same already-voted rejection, which is what actually guarantees at most
one ballot per (election, voter, position).

After the commit the handler decrements the organizer's credit balance
(credit-metered elections only) and publishes tally, activity, and credit
events. Both are best-effort: the vote never fails after commit.

# Eligibility Pre-check

CheckEligibility shares the window and eligibility gates with CastVote
and additionally returns the positions the voter has already voted for.

# Window Policy

ClassifyWindow is the pure window rule used by both paths:

	ClassifyWindow(start, end, now) → upcoming | active | ended

# Roster Import

ImportVoters accepts a CSV upload with tolerant header matching
("student id", "voter_id", "name", "e-mail", ...). Rows without an
identifier are dropped, duplicates are skipped, and the response reports
the number of entries actually added.
*/
package handlers
