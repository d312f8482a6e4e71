// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
)

type CandidateHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewCandidateHandler(store *db.Store, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{store: store, cfg: cfg}
}

// ListCandidates handles GET /trips/{code}/candidates
// Eliminated candidates are included with the round they left in.
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}

	candidates, err := h.store.Candidates(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err, "list candidates")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListCandidatesResponse{Candidates: candidates})
}

// ProposeCandidate handles POST /trips/{code}/candidates
func (h *CandidateHandler) ProposeCandidate(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	p, ok := authenticate(w, r, h.store, trip)
	if !ok {
		return
	}

	var req models.ProposeCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name, ok := cleanName(req.Name, maxTitleLen)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required (max 100 characters)")
		return
	}
	if string(req.Viability) == "null" {
		req.Viability = nil
	}
	if len(req.Viability) > 0 && !json.Valid(req.Viability) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "viability must be JSON")
		return
	}

	c := models.Candidate{
		ID:         uuid.NewString(),
		TripID:     trip.ID,
		Name:       name,
		ProposedBy: p.ID,
		Viability:  req.Viability,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.store.AddCandidate(r.Context(), c); err != nil {
		writeError(w, err, "propose candidate")
		return
	}

	slog.Info("candidate proposed", "trip_id", trip.ID, "candidate_id", c.ID, "name", name, "by", p.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.ProposeCandidateResponse{CandidateID: c.ID})
}

// RemoveCandidate handles DELETE /trips/{code}/candidates/{candidateID}
// Admin only, before voting starts.
func (h *CandidateHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	trip, ok := tripFromPath(w, r, h.store)
	if !ok {
		return
	}
	admin, ok := requireAdmin(w, r, h.store, trip)
	if !ok {
		return
	}

	candidateID := r.PathValue("candidateID")
	if err := h.store.RemoveCandidate(r.Context(), trip.ID, candidateID); err != nil {
		writeError(w, err, "remove candidate")
		return
	}

	slog.Info("candidate removed", "trip_id", trip.ID, "candidate_id", candidateID, "by", admin.ID)

	w.WriteHeader(http.StatusNoContent)
}
