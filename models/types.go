// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Trip phase constants
const (
	PhasePlanning = "planning"
	PhaseVoting   = "voting"
	PhaseFinished = "finished"
)

// Presentation stage constants
const (
	StageCalculating = "calculating"
	StageRevealing   = "revealing"
	StageResult      = "result"
)

// Round phase constants
const (
	RoundPhaseBatchPurge     = "BATCH_PURGE"
	RoundPhaseSingleKnockout = "SINGLE_KNOCKOUT"
	RoundPhaseFinal          = "FINAL"
)

// Voting type constants
const (
	VotingNegative = "NEGATIVE"
	VotingPositive = "POSITIVE"
)

// Score interpretation constants
const (
	InterpretationHate = "hate"
	InterpretationLove = "love"
)

// Participant roles that can be toggled
const (
	RoleAdmin     = "admin"
	RoleTreasurer = "treasurer"
)

// Request types

type CreateTripRequest struct {
	Title     string `json:"title"`
	AdminName string `json:"admin_name"`
}

type JoinTripRequest struct {
	LobbyCode string `json:"lobby_code"`
	Name      string `json:"name"`
}

type ProposeCandidateRequest struct {
	Name      string          `json:"name"`
	Viability json.RawMessage `json:"viability,omitempty"`
}

// candidate ids, index 0 is the top choice
type SubmitBallotRequest struct {
	Ranking []string `json:"ranking"`
}

type ScorePreviewRequest struct {
	Ballots   []Ballot `json:"ballots"`
	ActiveIDs []string `json:"active_ids"`
}

type UpdateRoleRequest struct {
	Role  string `json:"role"`
	Value bool   `json:"value"`
}

// Response types

type CreateTripResponse struct {
	TripID           string `json:"trip_id"`
	LobbyCode        string `json:"lobby_code"`
	ParticipantID    string `json:"participant_id"`
	ParticipantToken string `json:"participant_token"`
}

type JoinTripResponse struct {
	TripID           string `json:"trip_id"`
	Title            string `json:"title"`
	Phase            string `json:"phase"`
	ParticipantID    string `json:"participant_id"`
	ParticipantToken string `json:"participant_token"`
}

type ProposeCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type StartVotingResponse struct {
	Round int        `json:"round"`
	Rules RoundRules `json:"rules"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Round    int    `json:"round"`
	Message  string `json:"message"`
}

type VotingProgressResponse struct {
	Round        int      `json:"round"`
	TotalUsers   int      `json:"total_users"`
	VotedUsers   int      `json:"voted_users"`
	PendingUsers []string `json:"pending_users"`
	AllVoted     bool     `json:"all_voted"`
}

type ScorePreviewResponse struct {
	Rules    RoundRules       `json:"rules"`
	Scores   []Score          `json:"scores"`
	Rejected []RejectedBallot `json:"rejected"`
	Counted  int              `json:"counted"`
	TiedIDs  []string         `json:"tied_ids,omitempty"` // full tie across the cut
}

type TieErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	TiedIDs []string `json:"tied_ids"`
}

// TripSnapshot is the polled view of a trip. Every client polling the same
// trip gets the same stage.
type TripSnapshot struct {
	Trip        Trip          `json:"trip"`
	Stage       string        `json:"stage"`
	AcceptsVote bool          `json:"accepts_vote"`
	Rules       *RoundRules   `json:"rules,omitempty"`
	Active      []Candidate   `json:"active_candidates"`
	LastOutcome *RoundOutcome `json:"last_outcome,omitempty"`
	BallotCount int           `json:"ballot_count"`
}

type RoundHistoryResponse struct {
	TripID string         `json:"trip_id"`
	Rounds []RoundOutcome `json:"rounds"`
}

type ParticipantInfo struct {
	Participant Participant `json:"participant"`
	Trip        Trip        `json:"trip"`
}

type ListParticipantsResponse struct {
	Participants []Participant `json:"participants"`
}

type ListCandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Domain types

type Trip struct {
	ID                    string     `json:"id"`
	LobbyCode             string     `json:"lobby_code"`
	Title                 string     `json:"title"`
	Phase                 string     `json:"phase"`
	CurrentRound          int        `json:"current_round"`
	InitialCandidateCount int        `json:"initial_candidate_count"`
	Stage                 string     `json:"stage"`
	RevealUntil           *time.Time `json:"reveal_until,omitempty"`
	WinnerCandidateID     *string    `json:"winner_candidate_id,omitempty"`
	VotingStartedAt       *time.Time `json:"voting_started_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type Participant struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id"`
	Name        string    `json:"name"`
	Token       string    `json:"-"` // Never expose in JSON
	IsAdmin     bool      `json:"is_admin"`
	IsTreasurer bool      `json:"is_treasurer"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Candidate struct {
	ID              string          `json:"id"`
	TripID          string          `json:"trip_id"`
	Name            string          `json:"name"`
	ProposedBy      string          `json:"proposed_by"`
	IsEliminated    bool            `json:"is_eliminated"`
	EliminatedRound *int            `json:"eliminated_round,omitempty"`
	Viability       json.RawMessage `json:"viability,omitempty"` // opaque to the voting engine
	CreatedAt       time.Time       `json:"created_at"`
}

type Ballot struct {
	ID          string    `json:"id,omitempty"`
	TripID      string    `json:"trip_id,omitempty"`
	Round       int       `json:"round,omitempty"`
	VoterID     string    `json:"voter_id"`
	Ranking     []string  `json:"ranking"`
	IPHash      string    `json:"-"` // Never expose in JSON
	UserAgent   string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// Voting engine types

type RoundRules struct {
	Phase            string `json:"phase"`
	CountToEliminate int    `json:"count_to_eliminate"`
	VotingType       string `json:"voting_type"`
	Title            string `json:"title"`
	Description      string `json:"description"`
}

type Score struct {
	CandidateID     string `json:"candidate_id"`
	TotalPoints     int    `json:"total_points"`
	FirstPlaceCount int    `json:"first_place_count"`
	Interpretation  string `json:"interpretation"`
}

type RejectedBallot struct {
	VoterID string `json:"voter_id"`
	Reason  string `json:"reason"`
}

type RoundOutcome struct {
	TripID         string           `json:"trip_id"`
	Round          int              `json:"round"`
	Phase          string           `json:"phase"`
	VotingType     string           `json:"voting_type"`
	EliminatedIDs  []string         `json:"eliminated_ids"`
	WinnerID       *string          `json:"winner_id"`
	RemainingCount int              `json:"remaining_count"`
	NextRules      *RoundRules      `json:"next_rules,omitempty"`
	Scores         []Score          `json:"scores"`
	Rejected       []RejectedBallot `json:"rejected,omitempty"`
	TieBroken      bool             `json:"tie_broken,omitempty"`
	ComputedAt     time.Time        `json:"computed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
