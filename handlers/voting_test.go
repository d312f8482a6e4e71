// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/travelsphere/db"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/testutil"
)

type votingFixture struct {
	store   *db.Store
	handler *VotingHandler
	trip    models.Trip
	admin   models.Participant
	members []models.Participant
	ids     []string
}

// newVotingFixture creates a trip with an admin, two members and the given
// candidates. Voting is not started.
func newVotingFixture(t *testing.T, cities ...string) *votingFixture {
	t.Helper()

	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	resolver := testutil.NewTestResolver(store, cfg)

	trip, admin := testutil.CreateTestTrip(t, store, cfg, "Summer")
	f := &votingFixture{
		store:   store,
		handler: NewVotingHandler(store, resolver, cfg),
		trip:    trip,
		admin:   admin,
		members: []models.Participant{
			testutil.AddTestParticipant(t, store, trip.ID, "Bea"),
			testutil.AddTestParticipant(t, store, trip.ID, "Caio"),
		},
	}
	f.ids = testutil.AddTestCandidates(t, store, trip.ID, admin.ID, cities...)
	return f
}

func (f *votingFixture) request(method, suffix, token string, body any) *http.Request {
	var headers map[string]string
	if token != "" {
		headers = testutil.TokenHeader(token)
	}
	req := testutil.MakeRequest(method, "/trips/"+f.trip.LobbyCode+suffix, body, headers)
	req.SetPathValue("code", f.trip.LobbyCode)
	return req
}

func (f *votingFixture) start(t *testing.T) {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.StartVoting(w, f.request("POST", "/voting/start", f.admin.Token, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (f *votingFixture) submit(token string, ranking []string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.SubmitBallot(w, f.request("POST", "/ballots", token,
		models.SubmitBallotRequest{Ranking: ranking}))
	return w
}

func (f *votingFixture) resolve(token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ResolveRound(w, f.request("POST", "/voting/resolve", token, nil))
	return w
}

func (f *votingFixture) voters() []models.Participant {
	return append([]models.Participant{f.admin}, f.members...)
}

func TestStartVoting(t *testing.T) {
	t.Run("admin starts with a purge field", func(t *testing.T) {
		f := newVotingFixture(t, "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L")

		w := httptest.NewRecorder()
		f.handler.StartVoting(w, f.request("POST", "/voting/start", f.admin.Token, nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp models.StartVotingResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, 1, resp.Round)
		assert.Equal(t, models.RoundPhaseBatchPurge, resp.Rules.Phase)
		assert.Equal(t, 3, resp.Rules.CountToEliminate)
		assert.Equal(t, models.VotingNegative, resp.Rules.VotingType)

		trip, err := f.store.Trip(t.Context(), f.trip.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PhaseVoting, trip.Phase)
		assert.Equal(t, 12, trip.InitialCandidateCount)
		assert.NotNil(t, trip.VotingStartedAt)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		f := newVotingFixture(t, "A", "B")

		w := httptest.NewRecorder()
		f.handler.StartVoting(w, f.request("POST", "/voting/start", f.members[0].Token, nil))

		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	t.Run("too few candidates", func(t *testing.T) {
		f := newVotingFixture(t, "A")

		w := httptest.NewRecorder()
		f.handler.StartVoting(w, f.request("POST", "/voting/start", f.admin.Token, nil))

		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("already started", func(t *testing.T) {
		f := newVotingFixture(t, "A", "B")
		f.start(t)

		w := httptest.NewRecorder()
		f.handler.StartVoting(w, f.request("POST", "/voting/start", f.admin.Token, nil))

		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}

func TestSubmitBallot(t *testing.T) {
	f := newVotingFixture(t, "Lisbon", "Porto", "Faro", "Braga")

	t.Run("before voting starts", func(t *testing.T) {
		w := f.submit(f.admin.Token, f.ids)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	f.start(t)

	tests := []struct {
		name           string
		token          string
		ranking        []string
		expectedStatus int
	}{
		{
			name:           "valid ballot",
			token:          f.admin.Token,
			ranking:        f.ids,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "second ballot same round",
			token:          f.admin.Token,
			ranking:        f.ids,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing a candidate",
			token:          f.members[0].Token,
			ranking:        f.ids[:3],
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "candidate ranked twice",
			token:          f.members[0].Token,
			ranking:        []string{f.ids[0], f.ids[0], f.ids[1], f.ids[2]},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown candidate",
			token:          f.members[0].Token,
			ranking:        []string{f.ids[0], f.ids[1], f.ids[2], "Atlantis"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty ranking",
			token:          f.members[0].Token,
			ranking:        nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no token",
			ranking:        f.ids,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.submit(tt.token, tt.ranking)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusCreated {
				var resp models.SubmitBallotResponse
				testutil.AssertJSON(t, w, &resp)
				assert.NotEmpty(t, resp.BallotID)
				assert.Equal(t, 1, resp.Round)
			}
		})
	}

	t.Run("rejected ballots are not stored", func(t *testing.T) {
		count, err := f.store.BallotCount(t.Context(), f.trip.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestGetProgress(t *testing.T) {
	f := newVotingFixture(t, "Lisbon", "Porto", "Faro")

	progress := func(t *testing.T) *httptest.ResponseRecorder {
		t.Helper()
		w := httptest.NewRecorder()
		f.handler.GetProgress(w, f.request("GET", "/voting/progress", "", nil))
		return w
	}

	t.Run("not voting yet", func(t *testing.T) {
		testutil.AssertStatus(t, progress(t), http.StatusConflict)
	})

	f.start(t)
	testutil.AssertStatus(t, f.submit(f.members[0].Token, f.ids), http.StatusCreated)

	t.Run("one of three voted", func(t *testing.T) {
		w := progress(t)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp models.VotingProgressResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, 1, resp.Round)
		assert.Equal(t, 3, resp.TotalUsers)
		assert.Equal(t, 1, resp.VotedUsers)
		assert.ElementsMatch(t, []string{"Admin", "Caio"}, resp.PendingUsers)
		assert.False(t, resp.AllVoted)
	})

	testutil.AssertStatus(t, f.submit(f.admin.Token, f.ids), http.StatusCreated)
	testutil.AssertStatus(t, f.submit(f.members[1].Token, f.ids), http.StatusCreated)

	t.Run("everyone voted", func(t *testing.T) {
		w := progress(t)
		var resp models.VotingProgressResponse
		testutil.AssertJSON(t, w, &resp)
		assert.True(t, resp.AllVoted)
		assert.Empty(t, resp.PendingUsers)
	})
}

func TestResolveRound(t *testing.T) {
	t.Run("knockout then final", func(t *testing.T) {
		f := newVotingFixture(t, "Lisbon", "Porto", "Faro", "Braga")
		f.start(t)

		// Everyone wants Lisbon gone first.
		for _, p := range f.voters() {
			testutil.AssertStatus(t, f.submit(p.Token, f.ids), http.StatusCreated)
		}

		w := f.resolve(f.admin.Token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome models.RoundOutcome
		testutil.AssertJSON(t, w, &outcome)
		assert.Equal(t, 1, outcome.Round)
		assert.Equal(t, models.RoundPhaseSingleKnockout, outcome.Phase)
		assert.Equal(t, []string{f.ids[0]}, outcome.EliminatedIDs)
		assert.Nil(t, outcome.WinnerID)
		assert.Equal(t, 3, outcome.RemainingCount)
		require.NotNil(t, outcome.NextRules)
		assert.Equal(t, models.RoundPhaseFinal, outcome.NextRules.Phase)
		require.Len(t, outcome.Scores, 4)
		assert.Equal(t, 12, outcome.Scores[0].TotalPoints)
		assert.Equal(t, models.InterpretationHate, outcome.Scores[0].Interpretation)

		// Ballots for the old round are gone and the new round is open.
		count, err := f.store.BallotCount(t.Context(), f.trip.ID, 1)
		require.NoError(t, err)
		assert.Zero(t, count)

		final := f.ids[1:]
		testutil.AssertStatus(t, f.submit(f.admin.Token, f.ids), http.StatusBadRequest)
		for _, p := range f.voters() {
			testutil.AssertStatus(t, f.submit(p.Token, []string{final[2], final[0], final[1]}), http.StatusCreated)
		}

		w = f.resolve(f.admin.Token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		testutil.AssertJSON(t, w, &outcome)
		assert.Equal(t, 2, outcome.Round)
		assert.Equal(t, models.RoundPhaseFinal, outcome.Phase)
		require.NotNil(t, outcome.WinnerID)
		assert.Equal(t, final[2], *outcome.WinnerID)
		assert.Empty(t, outcome.EliminatedIDs)
		assert.Equal(t, 1, outcome.RemainingCount)
		assert.Equal(t, models.InterpretationLove, outcome.Scores[0].Interpretation)

		trip, err := f.store.Trip(t.Context(), f.trip.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PhaseFinished, trip.Phase)
		require.NotNil(t, trip.WinnerCandidateID)
		assert.Equal(t, final[2], *trip.WinnerCandidateID)

		// Nothing left to resolve.
		testutil.AssertStatus(t, f.resolve(f.admin.Token), http.StatusConflict)
	})

	t.Run("tie is reported with the tied candidates", func(t *testing.T) {
		f := newVotingFixture(t, "Lisbon", "Porto")
		f.start(t)

		testutil.AssertStatus(t, f.submit(f.admin.Token, []string{f.ids[0], f.ids[1]}), http.StatusCreated)
		testutil.AssertStatus(t, f.submit(f.members[0].Token, []string{f.ids[1], f.ids[0]}), http.StatusCreated)

		w := f.resolve(f.admin.Token)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var resp models.TieErrorResponse
		testutil.AssertJSON(t, w, &resp)
		assert.ElementsMatch(t, f.ids, resp.TiedIDs)

		// Nothing was written: the round is open again with both ballots kept.
		trip, err := f.store.Trip(t.Context(), f.trip.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PhaseVoting, trip.Phase)
		assert.Equal(t, models.StageResult, trip.Stage)
		count, err := f.store.BallotCount(t.Context(), f.trip.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		// A third ballot breaks the tie.
		testutil.AssertStatus(t, f.submit(f.members[1].Token, []string{f.ids[1], f.ids[0]}), http.StatusCreated)
		w = f.resolve(f.admin.Token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var outcome models.RoundOutcome
		testutil.AssertJSON(t, w, &outcome)
		require.NotNil(t, outcome.WinnerID)
		assert.Equal(t, f.ids[1], *outcome.WinnerID)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		f := newVotingFixture(t, "Lisbon", "Porto")
		f.start(t)

		testutil.AssertStatus(t, f.resolve(f.members[0].Token), http.StatusForbidden)
	})

	t.Run("planning trip", func(t *testing.T) {
		f := newVotingFixture(t, "Lisbon", "Porto")

		testutil.AssertStatus(t, f.resolve(f.admin.Token), http.StatusConflict)
	})
}

func TestGetRules(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, testutil.NewTestResolver(store, cfg), cfg)

	tests := []struct {
		query          string
		expectedStatus int
		phase          string
		eliminate      int
	}{
		{"12", http.StatusOK, models.RoundPhaseBatchPurge, 3},
		{"10", http.StatusOK, models.RoundPhaseBatchPurge, 2},
		{"9", http.StatusOK, models.RoundPhaseBatchPurge, 1},
		{"8", http.StatusOK, models.RoundPhaseSingleKnockout, 1},
		{"4", http.StatusOK, models.RoundPhaseSingleKnockout, 1},
		{"3", http.StatusOK, models.RoundPhaseFinal, 0},
		{"1", http.StatusOK, models.RoundPhaseFinal, 0},
		{"0", http.StatusBadRequest, "", 0},
		{"-2", http.StatusBadRequest, "", 0},
		{"many", http.StatusBadRequest, "", 0},
		{"", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run("active="+tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/rules?active="+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetRules(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var rules models.RoundRules
			testutil.AssertJSON(t, w, &rules)
			assert.Equal(t, tt.phase, rules.Phase)
			assert.Equal(t, tt.eliminate, rules.CountToEliminate)
		})
	}
}

func TestScorePreview(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, testutil.NewTestResolver(store, cfg), cfg)

	t.Run("final with a rejected ballot", func(t *testing.T) {
		body := models.ScorePreviewRequest{
			ActiveIDs: []string{"a", "b", "c"},
			Ballots: []models.Ballot{
				{VoterID: "v1", Ranking: []string{"a", "b", "c"}},
				{VoterID: "v2", Ranking: []string{"a", "c", "b"}},
				{VoterID: "v3", Ranking: []string{"b", "a", "c"}},
				{VoterID: "v4", Ranking: []string{"a", "a", "b"}},
			},
		}
		req := testutil.MakeRequest("POST", "/score", body, nil)
		w := httptest.NewRecorder()

		handler.Score(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp models.ScorePreviewResponse
		testutil.AssertJSON(t, w, &resp)

		assert.Equal(t, models.RoundPhaseFinal, resp.Rules.Phase)
		assert.Equal(t, 3, resp.Counted)
		require.Len(t, resp.Rejected, 1)
		assert.Equal(t, "v4", resp.Rejected[0].VoterID)
		assert.Empty(t, resp.TiedIDs)

		require.Len(t, resp.Scores, 3)
		assert.Equal(t, "a", resp.Scores[0].CandidateID)
		assert.Equal(t, 8, resp.Scores[0].TotalPoints)
		assert.Equal(t, 2, resp.Scores[0].FirstPlaceCount)
		assert.Equal(t, "b", resp.Scores[1].CandidateID)
		assert.Equal(t, 6, resp.Scores[1].TotalPoints)
		assert.Equal(t, "c", resp.Scores[2].CandidateID)
		assert.Equal(t, 4, resp.Scores[2].TotalPoints)
	})

	t.Run("tie across the cut", func(t *testing.T) {
		body := models.ScorePreviewRequest{
			ActiveIDs: []string{"a", "b"},
			Ballots: []models.Ballot{
				{VoterID: "v1", Ranking: []string{"a", "b"}},
				{VoterID: "v2", Ranking: []string{"b", "a"}},
			},
		}
		req := testutil.MakeRequest("POST", "/score", body, nil)
		w := httptest.NewRecorder()

		handler.Score(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp models.ScorePreviewResponse
		testutil.AssertJSON(t, w, &resp)
		assert.ElementsMatch(t, []string{"a", "b"}, resp.TiedIDs)
	})

	t.Run("no active candidates", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/score", models.ScorePreviewRequest{}, nil)
		w := httptest.NewRecorder()

		handler.Score(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("duplicate active id", func(t *testing.T) {
		body := models.ScorePreviewRequest{ActiveIDs: []string{"a", "a"}}
		req := testutil.MakeRequest("POST", "/score", body, nil)
		w := httptest.NewRecorder()

		handler.Score(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
