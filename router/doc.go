// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the TravelSphere API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, resolver, cfg)

# Endpoints

Health:

	GET /health

Trips (public, identified by lobby code):

	POST /trips                 - Create trip, caller becomes admin
	POST /trips/join            - Join by lobby code
	GET  /trips/{code}          - Polling snapshot (stage, rules, candidates, last outcome)
	GET  /trips/{code}/results  - Round history

Candidates (requires X-Participant-Token):

	GET    /trips/{code}/candidates               - All candidates
	POST   /trips/{code}/candidates               - Propose (planning only)
	DELETE /trips/{code}/candidates/{candidateID} - Remove (admin, planning only)

Voting (requires X-Participant-Token):

	POST /trips/{code}/voting/start    - Open round 1 (admin)
	POST /trips/{code}/ballots         - Submit a ranking
	GET  /trips/{code}/voting/progress - Who has voted
	POST /trips/{code}/voting/resolve  - Close the round (admin)

Engine previews:

	GET  /rules?active=N - Rules for N active candidates
	POST /score          - Score ballots against an active set

Participants:

	GET  /participants/me                                - Caller and their trip
	GET  /trips/{code}/participants                      - Members and roles
	POST /trips/{code}/participants/{participantID}/roles - Toggle admin/treasurer (admin)

# Handler Initialization

The router creates handler instances with dependency injection:

	tripHandler := handlers.NewTripHandler(store, cfg)
	candidateHandler := handlers.NewCandidateHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(store, resolver, cfg)
	participantHandler := handlers.NewParticipantHandler(store, cfg)

Only the voting handler needs the resolver; it owns the per-trip locks, so
one resolver must serve the whole process.
*/
package router
