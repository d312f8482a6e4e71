// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/travelsphere/auth"
	"github.com/danielhkuo/travelsphere/cliparse"
	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

// seq keeps fixture timestamps strictly increasing so candidates and
// participants list in creation order.
var seq atomic.Int64

func nextTime() time.Time {
	return time.Now().UTC().Add(time.Duration(seq.Add(1)) * time.Microsecond)
}

// SetupTestDB creates a fresh SQLite database file with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := db.Open(db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore is SetupTestDB wrapped in a Store.
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   db.TypeSQLite,
		LobbyCodeSalt:  "test-lobby-salt",
		IPHashSalt:     "test-ip-salt",
		ResolveTimeout: 5 * time.Second,
		RevealDuration: 0,
		TiePolicy:      voting.TieFail,
	}
}

// NewTestResolver builds a resolver over store from cfg.
func NewTestResolver(store voting.Store, cfg cliparse.Config) *voting.Resolver {
	return voting.NewResolver(store, voting.ResolverConfig{
		ResolveTimeout: cfg.ResolveTimeout,
		RevealDuration: cfg.RevealDuration,
		TiePolicy:      cfg.TiePolicy,
	})
}

// CreateTestTrip creates a trip in planning and returns it with its admin.
func CreateTestTrip(t *testing.T, store *db.Store, cfg cliparse.Config, title string) (models.Trip, models.Participant) {
	t.Helper()

	tripID := uuid.NewString()
	trip := models.Trip{
		ID:        tripID,
		LobbyCode: auth.GenerateLobbyCode(tripID, cfg.LobbyCodeSalt, 0),
		Title:     title,
		Phase:     models.PhasePlanning,
		Stage:     models.StageResult,
		CreatedAt: nextTime(),
	}

	token, _ := auth.GenerateParticipantToken()
	admin := models.Participant{
		ID:          uuid.NewString(),
		TripID:      tripID,
		Name:        "Admin",
		Token:       token,
		IsAdmin:     true,
		IsTreasurer: true,
		JoinedAt:    nextTime(),
	}

	if err := store.CreateTrip(context.Background(), trip, admin); err != nil {
		t.Fatalf("Failed to create test trip: %v", err)
	}

	return trip, admin
}

// AddTestParticipant joins a non-admin participant to a trip
func AddTestParticipant(t *testing.T, store *db.Store, tripID, name string) models.Participant {
	t.Helper()

	token, _ := auth.GenerateParticipantToken()
	p := models.Participant{
		ID:       uuid.NewString(),
		TripID:   tripID,
		Name:     name,
		Token:    token,
		JoinedAt: nextTime(),
	}
	if err := store.AddParticipant(context.Background(), p); err != nil {
		t.Fatalf("Failed to add test participant: %v", err)
	}

	return p
}

// AddTestCandidate proposes a city and returns the candidate ID
func AddTestCandidate(t *testing.T, store *db.Store, tripID, proposerID, name string) string {
	t.Helper()

	c := models.Candidate{
		ID:         uuid.NewString(),
		TripID:     tripID,
		Name:       name,
		ProposedBy: proposerID,
		CreatedAt:  nextTime(),
	}
	if err := store.AddCandidate(context.Background(), c); err != nil {
		t.Fatalf("Failed to add test candidate: %v", err)
	}

	return c.ID
}

// AddTestCandidates proposes several cities in order and returns their IDs
func AddTestCandidates(t *testing.T, store *db.Store, tripID, proposerID string, names ...string) []string {
	t.Helper()

	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = AddTestCandidate(t, store, tripID, proposerID, name)
	}
	return ids
}

// StartTestVoting moves a trip into round 1
func StartTestVoting(t *testing.T, store *db.Store, tripID string) {
	t.Helper()

	if _, err := store.StartVoting(context.Background(), tripID, time.Now()); err != nil {
		t.Fatalf("Failed to start voting: %v", err)
	}
}

// SubmitTestBallot stores a ballot for the trip's current round directly,
// without the resolver's validation
func SubmitTestBallot(t *testing.T, store *db.Store, tripID, voterID string, ranking []string) string {
	t.Helper()

	trip, err := store.Trip(context.Background(), tripID)
	if err != nil {
		t.Fatalf("Failed to load trip: %v", err)
	}

	now := time.Now()
	ballot := models.Ballot{
		ID:          uuid.NewString(),
		TripID:      tripID,
		Round:       trip.CurrentRound,
		VoterID:     voterID,
		Ranking:     ranking,
		SubmittedAt: nextTime(),
	}
	if err := store.InsertBallot(context.Background(), ballot, now); err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	return ballot.ID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// TokenHeader builds the header map for an authenticated request
func TokenHeader(token string) map[string]string {
	return map[string]string{"X-Participant-Token": token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
