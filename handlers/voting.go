// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/travelsphere/auth"
	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

type VotingHandler struct {
	store    *db.Store
	resolver *voting.Resolver
	cfg      cliparse.Config
}

func NewVotingHandler(store *db.Store, resolver *voting.Resolver, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{store: store, resolver: resolver, cfg: cfg}
}

// StartVoting handles POST /trips/{code}/voting/start
func (h *VotingHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	admin, ok := requireAdmin(w, r, h.store, trip)
	if !ok {
		return
	}

	count, err := h.store.StartVoting(r.Context(), trip.ID, time.Now())
	if err != nil {
		writeError(w, err, "start voting")
		return
	}

	rules, err := voting.ComputeRoundRules(count)
	if err != nil {
		writeError(w, err, "start voting")
		return
	}

	slog.Info("voting started", "trip_id", trip.ID, "candidates", count, "by", admin.ID,
		"rounds_to_final", voting.MaxRoundsToFinal(count))

	middleware.JSONResponse(w, http.StatusOK, models.StartVotingResponse{
		Round: 1,
		Rules: rules,
	})
}

// SubmitBallot handles POST /trips/{code}/ballots
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	p, ok := authenticate(w, r, h.store, trip)
	if !ok {
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Ranking) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ranking cannot be empty")
		return
	}

	ballot, err := h.resolver.SubmitBallot(r.Context(), trip.ID, models.Ballot{
		VoterID:   p.ID,
		Ranking:   req.Ranking,
		IPHash:    auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err, "submit ballot")
		return
	}

	slog.Info("ballot submitted", "trip_id", trip.ID, "round", ballot.Round, "ballot_id", ballot.ID, "voter_id", p.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballot.ID,
		Round:    ballot.Round,
		Message:  "Ballot submitted successfully",
	})
}

// GetProgress handles GET /trips/{code}/voting/progress
// Names who has and hasn't voted in the current round.
func (h *VotingHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	if trip.Phase != models.PhaseVoting {
		writeError(w, voting.ErrNotVoting, "load progress")
		return
	}

	participants, err := h.store.Participants(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err, "load progress")
		return
	}
	voted, err := h.store.Voters(r.Context(), trip.ID, trip.CurrentRound)
	if err != nil {
		writeError(w, err, "load progress")
		return
	}

	resp := models.VotingProgressResponse{
		Round:        trip.CurrentRound,
		TotalUsers:   len(participants),
		PendingUsers: []string{},
	}
	for _, p := range participants {
		if voted[p.ID] {
			resp.VotedUsers++
		} else {
			resp.PendingUsers = append(resp.PendingUsers, p.Name)
		}
	}
	resp.AllVoted = resp.TotalUsers > 0 && resp.VotedUsers == resp.TotalUsers

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ResolveRound handles POST /trips/{code}/voting/resolve
// Admin only. Scores the round and applies the eliminations or the winner.
func (h *VotingHandler) ResolveRound(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	admin, ok := requireAdmin(w, r, h.store, trip)
	if !ok {
		return
	}

	outcome, err := h.resolver.ResolveRound(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err, "resolve round")
		return
	}

	slog.Info("round closed by admin", "trip_id", trip.ID, "round", outcome.Round, "by", admin.ID)

	middleware.JSONResponse(w, http.StatusOK, outcome)
}

// GetRules handles GET /rules?active=N
// Previews the rules for a field of N candidates.
func (h *VotingHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	active, err := strconv.Atoi(r.URL.Query().Get("active"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "active must be an integer")
		return
	}

	rules, err := voting.ComputeRoundRules(active)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "active must be at least 1")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rules)
}

// Score handles POST /score
// Scores a set of ballots without touching any trip.
func (h *VotingHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req models.ScorePreviewRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tally, err := voting.ScoreBallots(req.Ballots, req.ActiveIDs)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := models.ScorePreviewResponse{
		Rules:    tally.Rules,
		Scores:   tally.Scores,
		Rejected: tally.Rejected,
		Counted:  tally.Counted,
	}
	if resp.Rejected == nil {
		resp.Rejected = []models.RejectedBallot{}
	}

	cut := tally.Rules.CountToEliminate
	if tally.Rules.VotingType == models.VotingPositive {
		cut = 1
	}
	resp.TiedIDs, _ = voting.TiedAt(tally.Scores, cut)

	middleware.JSONResponse(w, http.StatusOK, resp)
}
