// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the TravelSphere API.

# Handler Types

Each handler is a struct with store and config dependencies:

  - TripHandler: Create, join, polling snapshot and round history
  - CandidateHandler: Propose, list and remove destinations
  - VotingHandler: Start voting, ballots, progress, round resolution, previews
  - ParticipantHandler: Identity lookup and role toggles

Handlers are created via constructor functions:

	tripHandler := handlers.NewTripHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(store, resolver, cfg)

# Trip Lifecycle

Trips progress through three phases: planning → voting → finished

	POST /trips                         → CreateTrip (returns lobby_code, participant_token)
	POST /trips/{code}/candidates       → ProposeCandidate (planning only)
	POST /trips/{code}/voting/start     → StartVoting (admin, at least 2 candidates)
	POST /trips/{code}/ballots          → SubmitBallot (one per participant per round)
	POST /trips/{code}/voting/resolve   → ResolveRound (admin)

Rounds repeat until the final elects a winner. Clients poll GET /trips/{code}
and follow its stage: calculating while a round is being resolved, revealing
while the outcome is shown, result when the next round is open.

# Identity

Every call that acts on a trip reads the X-Participant-Token header. The
token must belong to a member of that trip; admin-only calls also need the
admin flag.

# Errors

writeError maps engine and store errors onto status codes:

	400  invalid ballot, bad lobby code
	401  missing or unknown participant token
	403  not a member, not an admin
	404  unknown trip, participant or candidate
	409  wrong phase, round closed, duplicate ballot, concurrent resolution,
	     no active candidates, unresolved tie (body lists tied_ids)
	503  resolution could not be persisted or timed out; safe to retry
*/
package handlers
