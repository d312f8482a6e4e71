// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/travelsphere/auth"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

const (
	maxNameLen  = 50
	maxTitleLen = 100
)

// writeError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a 500.
func writeError(w http.ResponseWriter, err error, action string) {
	var tie *voting.TieError
	switch {
	case errors.As(err, &tie):
		middleware.TieResponse(w, err.Error(), tie.TiedIDs)

	case errors.Is(err, voting.ErrInvalidBallot),
		errors.Is(err, auth.ErrInvalidLobbyCode):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, voting.ErrTripNotFound),
		errors.Is(err, db.ErrParticipantNotFound),
		errors.Is(err, db.ErrCandidateNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())

	case errors.Is(err, voting.ErrNoActiveCandidates),
		errors.Is(err, voting.ErrConcurrentResolution),
		errors.Is(err, voting.ErrNotVoting),
		errors.Is(err, voting.ErrRoundNotOpen),
		errors.Is(err, voting.ErrBallotExists),
		errors.Is(err, db.ErrNotPlanning),
		errors.Is(err, db.ErrTooFewCandidates),
		errors.Is(err, db.ErrNameTaken),
		errors.Is(err, db.ErrLastAdmin):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())

	case errors.Is(err, voting.ErrPersistence),
		errors.Is(err, context.DeadlineExceeded):
		slog.Warn("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Temporarily unavailable, safe to retry")

	default:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// tripFromPath loads the trip named by the {code} path value.
func tripFromPath(w http.ResponseWriter, r *http.Request, store *db.Store) (models.Trip, bool) {
	code, err := auth.NormalizeLobbyCode(r.PathValue("code"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return models.Trip{}, false
	}

	trip, err := store.TripByCode(r.Context(), code)
	if err != nil {
		writeError(w, err, "load trip")
		return models.Trip{}, false
	}
	return trip, true
}

// authenticate resolves the X-Participant-Token header to a member of trip.
func authenticate(w http.ResponseWriter, r *http.Request, store *db.Store, trip models.Trip) (models.Participant, bool) {
	token := middleware.ParticipantToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return models.Participant{}, false
	}

	p, err := store.ParticipantByToken(r.Context(), token)
	if errors.Is(err, db.ErrParticipantNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return models.Participant{}, false
	}
	if err != nil {
		writeError(w, err, "load participant")
		return models.Participant{}, false
	}

	if p.TripID != trip.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not a member of this trip")
		return models.Participant{}, false
	}
	return p, true
}

// requireAdmin is authenticate plus the admin flag.
func requireAdmin(w http.ResponseWriter, r *http.Request, store *db.Store, trip models.Trip) (models.Participant, bool) {
	p, ok := authenticate(w, r, store, trip)
	if !ok {
		return models.Participant{}, false
	}
	if !p.IsAdmin {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only a trip admin can do this")
		return models.Participant{}, false
	}
	return p, true
}

// cleanName trims s and checks its length in runes.
func cleanName(s string, limit int) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n > 0 && n <= limit
}
