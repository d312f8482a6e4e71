// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
)

type ParticipantHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewParticipantHandler(store *db.Store, cfg cliparse.Config) *ParticipantHandler {
	return &ParticipantHandler{store: store, cfg: cfg}
}

// GetMe handles GET /participants/me
// Returns the participant behind the token and their trip.
func (h *ParticipantHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	token := middleware.ParticipantToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return
	}

	p, err := h.store.ParticipantByToken(r.Context(), token)
	if errors.Is(err, db.ErrParticipantNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return
	}
	if err != nil {
		writeError(w, err, "load participant")
		return
	}

	trip, err := h.store.Trip(r.Context(), p.TripID)
	if err != nil {
		writeError(w, err, "load participant")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ParticipantInfo{
		Participant: p,
		Trip:        trip,
	})
}

// ListParticipants handles GET /trips/{code}/participants
func (h *ParticipantHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}

	participants, err := h.store.Participants(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err, "list participants")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListParticipantsResponse{Participants: participants})
}

// UpdateRole handles POST /trips/{code}/participants/{participantID}/roles
// Admin only. Toggles the admin or treasurer flag.
func (h *ParticipantHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	admin, ok := requireAdmin(w, r, h.store, trip)
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleTreasurer {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be admin or treasurer")
		return
	}

	participantID := r.PathValue("participantID")
	p, err := h.store.SetRole(r.Context(), trip.ID, participantID, req.Role, req.Value)
	if err != nil {
		writeError(w, err, "update role")
		return
	}

	slog.Info("role updated", "trip_id", trip.ID, "participant_id", participantID,
		"role", req.Role, "value", req.Value, "by", admin.ID)

	middleware.JSONResponse(w, http.StatusOK, p)
}
