// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/testutil"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	return NewRouter(store, testutil.NewTestResolver(store, cfg), cfg)
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRootEndpoint(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "travelsphere API v1", w.Body.String())
}

func TestRouteExistence(t *testing.T) {
	mux := newTestMux(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/trips"},
		{"POST", "/trips/join"},
		{"GET", "/trips/ABC234"},
		{"GET", "/trips/ABC234/results"},

		{"GET", "/trips/ABC234/candidates"},
		{"POST", "/trips/ABC234/candidates"},
		{"DELETE", "/trips/ABC234/candidates/cand-1"},

		{"POST", "/trips/ABC234/voting/start"},
		{"POST", "/trips/ABC234/ballots"},
		{"GET", "/trips/ABC234/voting/progress"},
		{"POST", "/trips/ABC234/voting/resolve"},

		{"GET", "/rules?active=5"},
		{"POST", "/score"},

		{"GET", "/participants/me"},
		{"GET", "/trips/ABC234/participants"},
		{"POST", "/trips/ABC234/participants/p-1/roles"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code,
				"route %s %s should have a handler", tc.method, tc.path)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"PUT", "/trips/ABC234/candidates"},
		{"PUT", "/trips/ABC234/voting/resolve"},
		{"DELETE", "/trips/ABC234"},
		{"PUT", "/score"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(store, testutil.NewTestResolver(store, cfg), cfg)

	trip, admin := testutil.CreateTestTrip(t, store, cfg, "Summer")
	ids := testutil.AddTestCandidates(t, store, trip.ID, admin.ID, "Lisbon", "Porto")

	t.Run("lobby code extraction is case-insensitive", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trips/"+trip.LobbyCode, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		lower := httptest.NewRequest("GET", "/trips/"+strings.ToLower(trip.LobbyCode), nil)
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, lower)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var snap models.TripSnapshot
		require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
		assert.Equal(t, trip.ID, snap.Trip.ID)
	})

	t.Run("candidate ID extraction", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/trips/"+trip.LobbyCode+"/candidates/"+ids[1], nil)
		req.Header.Set("X-Participant-Token", admin.Token)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})
}
