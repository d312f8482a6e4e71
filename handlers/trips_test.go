// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/travelsphere/auth"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/testutil"
)

func TestCreateTrip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(store, cfg)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{
			name:           "valid trip",
			body:           models.CreateTripRequest{Title: "Summer 2026", AdminName: "Ana"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           models.CreateTripRequest{AdminName: "Ana"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank admin name",
			body:           models.CreateTripRequest{Title: "Summer", AdminName: "   "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "title too long",
			body:           models.CreateTripRequest{Title: strings.Repeat("x", 101), AdminName: "Ana"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "admin name too long",
			body:           models.CreateTripRequest{Title: "Summer", AdminName: strings.Repeat("y", 51)},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/trips", tt.body, nil)
			w := httptest.NewRecorder()

			handler.CreateTrip(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreateTripResponse
			testutil.AssertJSON(t, w, &resp)
			assert.NotEmpty(t, resp.TripID)
			assert.Len(t, resp.LobbyCode, auth.LobbyCodeLength)
			assert.NotEmpty(t, resp.ParticipantToken)

			creator, err := store.ParticipantByToken(req.Context(), resp.ParticipantToken)
			require.NoError(t, err)
			assert.Equal(t, resp.ParticipantID, creator.ID)
			assert.True(t, creator.IsAdmin, "creator should be admin")
			assert.True(t, creator.IsTreasurer, "creator should be treasurer")

			trip, err := store.TripByCode(req.Context(), resp.LobbyCode)
			require.NoError(t, err)
			assert.Equal(t, models.PhasePlanning, trip.Phase)
			assert.Equal(t, models.StageResult, trip.Stage)
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/trips", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()

		handler.CreateTrip(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestJoinTrip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(store, cfg)

	trip, _ := testutil.CreateTestTrip(t, store, cfg, "Summer")
	testutil.AddTestParticipant(t, store, trip.ID, "Bea")

	tests := []struct {
		name           string
		body           models.JoinTripRequest
		expectedStatus int
	}{
		{
			name:           "valid join",
			body:           models.JoinTripRequest{LobbyCode: trip.LobbyCode, Name: "Caio"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "lowercase code with spaces",
			body:           models.JoinTripRequest{LobbyCode: "  " + strings.ToLower(trip.LobbyCode) + " ", Name: "Dani"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "name already taken",
			body:           models.JoinTripRequest{LobbyCode: trip.LobbyCode, Name: "Bea"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "malformed code",
			body:           models.JoinTripRequest{LobbyCode: "ABC", Name: "Eli"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "code with ambiguous characters",
			body:           models.JoinTripRequest{LobbyCode: "OOOOOO", Name: "Eli"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			body:           models.JoinTripRequest{LobbyCode: trip.LobbyCode},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/trips/join", tt.body, nil)
			w := httptest.NewRecorder()

			handler.JoinTrip(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.JoinTripResponse
			testutil.AssertJSON(t, w, &resp)
			assert.Equal(t, trip.ID, resp.TripID)
			assert.Equal(t, "Summer", resp.Title)
			assert.Equal(t, models.PhasePlanning, resp.Phase)
			assert.NotEmpty(t, resp.ParticipantToken)

			p, err := store.ParticipantByToken(req.Context(), resp.ParticipantToken)
			require.NoError(t, err)
			assert.False(t, p.IsAdmin, "joiners are not admins")
		})
	}

	t.Run("unknown trip", func(t *testing.T) {
		code := auth.GenerateLobbyCode("no-such-trip", "other-salt", 0)
		req := testutil.MakeRequest("POST", "/trips/join", models.JoinTripRequest{LobbyCode: code, Name: "Fay"}, nil)
		w := httptest.NewRecorder()

		handler.JoinTrip(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestGetTrip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(store, cfg)

	trip, admin := testutil.CreateTestTrip(t, store, cfg, "Summer")
	ids := testutil.AddTestCandidates(t, store, trip.ID, admin.ID, "Lisbon", "Porto", "Faro", "Braga")

	getSnapshot := func(t *testing.T, code string) models.TripSnapshot {
		t.Helper()
		req := httptest.NewRequest("GET", "/trips/"+code, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()

		handler.GetTrip(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var snap models.TripSnapshot
		testutil.AssertJSON(t, w, &snap)
		return snap
	}

	t.Run("planning", func(t *testing.T) {
		snap := getSnapshot(t, trip.LobbyCode)

		assert.Equal(t, models.PhasePlanning, snap.Trip.Phase)
		assert.Equal(t, models.StageResult, snap.Stage)
		assert.False(t, snap.AcceptsVote)
		assert.Nil(t, snap.Rules)
		assert.Nil(t, snap.LastOutcome)
		assert.Len(t, snap.Active, 4)
	})

	testutil.StartTestVoting(t, store, trip.ID)
	testutil.SubmitTestBallot(t, store, trip.ID, admin.ID, ids)

	t.Run("voting", func(t *testing.T) {
		snap := getSnapshot(t, trip.LobbyCode)

		assert.Equal(t, models.PhaseVoting, snap.Trip.Phase)
		assert.Equal(t, 1, snap.Trip.CurrentRound)
		assert.Equal(t, 4, snap.Trip.InitialCandidateCount)
		assert.True(t, snap.AcceptsVote)
		require.NotNil(t, snap.Rules)
		assert.Equal(t, models.RoundPhaseSingleKnockout, snap.Rules.Phase)
		assert.Equal(t, 1, snap.BallotCount)
	})

	t.Run("unknown code", func(t *testing.T) {
		code := auth.GenerateLobbyCode("no-such-trip", "other-salt", 0)
		req := httptest.NewRequest("GET", "/trips/"+code, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()

		handler.GetTrip(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("malformed code", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trips/nope", nil)
		req.SetPathValue("code", "nope")
		w := httptest.NewRecorder()

		handler.GetTrip(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestGetResultsEmpty(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(store, cfg)

	trip, _ := testutil.CreateTestTrip(t, store, cfg, "Summer")

	req := httptest.NewRequest("GET", "/trips/"+trip.LobbyCode+"/results", nil)
	req.SetPathValue("code", trip.LobbyCode)
	w := httptest.NewRecorder()

	handler.GetResults(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.RoundHistoryResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, trip.ID, resp.TripID)
	assert.Empty(t, resp.Rounds)
}
