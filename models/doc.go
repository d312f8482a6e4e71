// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateTripRequest: title, admin_name
  - JoinTripRequest: lobby_code, name
  - ProposeCandidateRequest: name, viability (opaque JSON)
  - SubmitBallotRequest: ranking ([]string, index 0 = top choice)
  - ScorePreviewRequest: ballots, active_ids
  - UpdateRoleRequest: role, value

# Response Types

  - CreateTripResponse: trip_id, lobby_code, participant token
  - JoinTripResponse: trip_id, title, phase, participant token
  - TripSnapshot: the polled view (phase, stage, rules, active candidates, last outcome)
  - VotingProgressResponse: who has and has not voted this round
  - RoundHistoryResponse: every resolved round
  - ErrorResponse, TieErrorResponse

# Domain Types

  - Trip: phase, round counter, presentation stage, winner
  - Participant: name, secret token, admin/treasurer flags
  - Candidate: proposed city with is_eliminated flag and opaque viability blob
  - Ballot: one ranked ordering of the active candidates for one round
  - RoundRules, Score, RoundOutcome: voting engine values (never persisted
    except RoundOutcome as round history)

# Constants

Trip phases:

	PhasePlanning = "planning"
	PhaseVoting   = "voting"
	PhaseFinished = "finished"

Presentation stages:

	StageCalculating = "calculating"
	StageRevealing   = "revealing"
	StageResult      = "result"

Round phases and voting types:

	RoundPhaseBatchPurge, RoundPhaseSingleKnockout, RoundPhaseFinal
	VotingNegative ("hate"), VotingPositive ("love")
*/
package models
