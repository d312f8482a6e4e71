// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/handlers"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/voting"
)

func NewRouter(store *db.Store, resolver *voting.Resolver, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(store, cfg)
	candidateHandler := handlers.NewCandidateHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(store, resolver, cfg)
	participantHandler := handlers.NewParticipantHandler(store, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Trips (lobby and polling)
	mux.HandleFunc("POST /trips", middleware.WithLogging(tripHandler.CreateTrip))
	mux.HandleFunc("POST /trips/join", middleware.WithLogging(tripHandler.JoinTrip))
	mux.HandleFunc("GET /trips/{code}", middleware.WithLogging(tripHandler.GetTrip))
	mux.HandleFunc("GET /trips/{code}/results", middleware.WithLogging(tripHandler.GetResults))

	// Candidates (planning phase)
	mux.HandleFunc("GET /trips/{code}/candidates", middleware.WithLogging(candidateHandler.ListCandidates))
	mux.HandleFunc("POST /trips/{code}/candidates", middleware.WithLogging(candidateHandler.ProposeCandidate))
	mux.HandleFunc("DELETE /trips/{code}/candidates/{candidateID}", middleware.WithLogging(candidateHandler.RemoveCandidate))

	// Voting rounds
	mux.HandleFunc("POST /trips/{code}/voting/start", middleware.WithLogging(votingHandler.StartVoting))
	mux.HandleFunc("POST /trips/{code}/ballots", middleware.WithLogging(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /trips/{code}/voting/progress", middleware.WithLogging(votingHandler.GetProgress))
	mux.HandleFunc("POST /trips/{code}/voting/resolve", middleware.WithLogging(votingHandler.ResolveRound))

	// Engine previews (no trip state)
	mux.HandleFunc("GET /rules", middleware.WithLogging(votingHandler.GetRules))
	mux.HandleFunc("POST /score", middleware.WithLogging(votingHandler.Score))

	// Participants and roles
	mux.HandleFunc("GET /participants/me", middleware.WithLogging(participantHandler.GetMe))
	mux.HandleFunc("GET /trips/{code}/participants", middleware.WithLogging(participantHandler.ListParticipants))
	mux.HandleFunc("POST /trips/{code}/participants/{participantID}/roles", middleware.WithLogging(participantHandler.UpdateRole))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("travelsphere API v1"))
	})

	return mux
}
