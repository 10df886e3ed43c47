package models

import "time"

// Election window states
const (
	WindowUpcoming = "upcoming"
	WindowActive   = "active"
	WindowEnded    = "ended"
)

// VoterLimitUnlimited is the voter_limit sentinel for elections with no
// capacity cap. Unlimited elections are not credit-metered.
const VoterLimitUnlimited = 0

// Rejection reason codes, used in ErrorResponse.Error and as metric labels
const (
	ReasonNotFound          = "not_found"
	ReasonCandidateNotFound = "candidate_not_found"
	ReasonOutOfWindow       = "out_of_window"
	ReasonNotEligible       = "not_eligible"
	ReasonCapacityExceeded  = "capacity_exceeded"
	ReasonAlreadyVoted      = "already_voted"
)

// Request types

type RegisterOrganizerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateElectionRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	OrganizerID  string    `json:"organizer_id"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	VoterLimit   int       `json:"voter_limit"` // 0 = unlimited
}

type UpdateElectionRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Organization string `json:"organization"`
}

type AddCandidateRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

type AddVoterRequest struct {
	VoterID string `json:"voter_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type CastVoteRequest struct {
	VoterID     string `json:"voter_id"`
	CandidateID string `json:"candidate_id"`
}

type CheckEligibilityRequest struct {
	VoterID string `json:"voter_id"`
}

// Response types

type RegisterOrganizerResponse struct {
	OrganizerID   string `json:"organizer_id"`
	AccountKey    string `json:"account_key"`
	SharedCredits int    `json:"shared_credits"`
}

type CreditBalanceResponse struct {
	OrganizerID   string `json:"organizer_id"`
	SharedCredits int    `json:"shared_credits"`
	Unlimited     bool   `json:"unlimited"`
}

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type ImportVotersResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type CastVoteResponse struct {
	Message    string `json:"message"`
	Position   string `json:"position"`
	TotalVotes int    `json:"total_votes"`
}

type CheckEligibilityResponse struct {
	Allowed        bool     `json:"allowed"`
	VotedPositions []string `json:"voted_positions"`
}

// Domain types

type Organizer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	SharedCredits int       `json:"shared_credits"`
	Unlimited     bool      `json:"unlimited"`
	CreatedAt     time.Time `json:"created_at"`
}

type Election struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	OrganizerID  string    `json:"organizer_id"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	VoterLimit   int       `json:"voter_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

type Candidate struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	VoteCount  int    `json:"vote_count"`
}

// Ballot is one accepted vote. The (election_id, voter_id, position) triple
// is unique; rows are never updated or deleted except by election cascade.
type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	Position    string    `json:"position"`
	VoterID     string    `json:"voter_id"`
	CastAt      time.Time `json:"cast_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

type EligibilityEntry struct {
	ElectionID string `json:"election_id"`
	VoterID    string `json:"voter_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// BallotRef is the public projection of a ledger row embedded in the
// election document. The array length is the displayed total vote count.
type BallotRef struct {
	VoterID  string    `json:"voter_id"`
	Position string    `json:"position"`
	CastAt   time.Time `json:"cast_at"`
}

type ElectionDocument struct {
	Election   Election    `json:"election"`
	Candidates []Candidate `json:"candidates"`
	Voters     []BallotRef `json:"voters"`
}

// Live channel payloads

type TallyEvent struct {
	Type       string      `json:"type"` // "tally"
	ElectionID string      `json:"election_id"`
	Candidates []Candidate `json:"candidates"`
	TotalVotes int         `json:"total_votes"`
}

type VoteActivityEvent struct {
	Type          string `json:"type"` // "vote_cast"
	ElectionID    string `json:"election_id"`
	ElectionTitle string `json:"election_title"`
	TotalVotes    int    `json:"total_votes"`
}

type CreditEvent struct {
	Type          string `json:"type"` // "credits"
	Reason        string `json:"reason"`
	OrganizerID   string `json:"organizer_id"`
	ElectionTitle string `json:"election_title"`
	SharedCredits int    `json:"shared_credits"`
}

type ElectionUpdatedEvent struct {
	Type     string   `json:"type"` // "election_updated"
	Election Election `json:"election"`
}

// Error response. Error carries the machine-readable reason code; the
// optional fields let clients render the exact gate that rejected the
// request (window boundary timestamps, position already voted for).
type ErrorResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message,omitempty"`
	Status    string     `json:"status,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Position  string     `json:"position,omitempty"`
}
