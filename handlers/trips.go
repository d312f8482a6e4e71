// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/travelsphere/auth"
	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

// lobbyCodeAttempts bounds how many derived codes CreateTrip tries before
// giving up on a collision.
const lobbyCodeAttempts = 5

type TripHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewTripHandler(store *db.Store, cfg cliparse.Config) *TripHandler {
	return &TripHandler{store: store, cfg: cfg}
}

// CreateTrip handles POST /trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title, ok := cleanName(req.Title, maxTitleLen)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required (max 100 characters)")
		return
	}
	adminName, ok := cleanName(req.AdminName, maxNameLen)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "admin_name is required (max 50 characters)")
		return
	}

	token, err := auth.GenerateParticipantToken()
	if err != nil {
		slog.Error("failed to generate participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	now := time.Now().UTC()
	trip := models.Trip{
		ID:        uuid.NewString(),
		Title:     title,
		Phase:     models.PhasePlanning,
		Stage:     models.StageResult,
		CreatedAt: now,
	}
	admin := models.Participant{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		Name:        adminName,
		Token:       token,
		IsAdmin:     true,
		IsTreasurer: true,
		JoinedAt:    now,
	}

	for attempt := 0; ; attempt++ {
		trip.LobbyCode = auth.GenerateLobbyCode(trip.ID, h.cfg.LobbyCodeSalt, attempt)
		err = h.store.CreateTrip(r.Context(), trip, admin)
		if err == nil || !db.IsUniqueViolation(err) || attempt+1 == lobbyCodeAttempts {
			break
		}
		slog.Warn("lobby code collision, retrying", "trip_id", trip.ID, "attempt", attempt)
	}
	if err != nil {
		writeError(w, err, "create trip")
		return
	}

	slog.Info("trip created", "trip_id", trip.ID, "lobby_code", trip.LobbyCode, "admin", adminName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTripResponse{
		TripID:           trip.ID,
		LobbyCode:        trip.LobbyCode,
		ParticipantID:    admin.ID,
		ParticipantToken: token,
	})
}

// JoinTrip handles POST /trips/join
func (h *TripHandler) JoinTrip(w http.ResponseWriter, r *http.Request) {
	var req models.JoinTripRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name, ok := cleanName(req.Name, maxNameLen)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required (max 50 characters)")
		return
	}
	code, err := auth.NormalizeLobbyCode(req.LobbyCode)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "lobby_code is invalid")
		return
	}

	trip, err := h.store.TripByCode(r.Context(), code)
	if err != nil {
		writeError(w, err, "join trip")
		return
	}
	if trip.Phase == models.PhaseFinished {
		middleware.ErrorResponse(w, http.StatusConflict, "Trip has already picked its destination")
		return
	}

	token, err := auth.GenerateParticipantToken()
	if err != nil {
		slog.Error("failed to generate participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join trip")
		return
	}

	p := models.Participant{
		ID:       uuid.NewString(),
		TripID:   trip.ID,
		Name:     name,
		Token:    token,
		JoinedAt: time.Now().UTC(),
	}
	if err := h.store.AddParticipant(r.Context(), p); err != nil {
		writeError(w, err, "join trip")
		return
	}

	slog.Info("participant joined", "trip_id", trip.ID, "participant_id", p.ID, "name", name)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinTripResponse{
		TripID:           trip.ID,
		Title:            trip.Title,
		Phase:            trip.Phase,
		ParticipantID:    p.ID,
		ParticipantToken: token,
	})
}

// GetTrip handles GET /trips/{code}
// This is the polling endpoint: every client of a trip sees the same stage.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}

	snap, err := buildSnapshot(r, h.store, trip, time.Now())
	if err != nil {
		writeError(w, err, "load trip")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}

func buildSnapshot(r *http.Request, store *db.Store, trip models.Trip, now time.Time) (models.TripSnapshot, error) {
	ctx := r.Context()

	active, err := store.ActiveCandidates(ctx, trip.ID)
	if err != nil {
		return models.TripSnapshot{}, err
	}
	last, err := store.LatestOutcome(ctx, trip.ID)
	if err != nil {
		return models.TripSnapshot{}, err
	}

	snap := models.TripSnapshot{
		Trip:        trip,
		Stage:       voting.EffectiveStage(trip, now),
		AcceptsVote: voting.AcceptsBallots(trip, now),
		Active:      active,
		LastOutcome: last,
	}

	if trip.Phase == models.PhaseVoting {
		if rules, err := voting.ComputeRoundRules(len(active)); err == nil {
			snap.Rules = &rules
		}
		snap.BallotCount, err = store.BallotCount(ctx, trip.ID, trip.CurrentRound)
		if err != nil {
			return models.TripSnapshot{}, err
		}
	}

	return snap, nil
}

// GetResults handles GET /trips/{code}/results
// Returns every resolved round, oldest first.
func (h *TripHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}

	rounds, err := h.store.Outcomes(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err, "load results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RoundHistoryResponse{
		TripID: trip.ID,
		Rounds: rounds,
	})
}
