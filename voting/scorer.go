// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"fmt"
	"sort"

	"github.com/danielhkuo/travelsphere/models"
)

// Tally is the scored result of one round.
type Tally struct {
	Rules    models.RoundRules
	Scores   []models.Score // sorted: points desc, then first places desc
	Rejected []models.RejectedBallot
	Counted  int // ballots that contributed points
}

// ValidateBallot checks that ranking is a permutation of exactly activeIDs.
func ValidateBallot(ranking []string, activeIDs []string) error {
	if len(ranking) != len(activeIDs) {
		return &BallotError{Reason: fmt.Sprintf("ranks %d candidates, %d are active", len(ranking), len(activeIDs))}
	}

	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	seen := make(map[string]bool, len(ranking))
	for _, id := range ranking {
		if !active[id] {
			return &BallotError{Reason: "unknown or eliminated candidate " + id}
		}
		if seen[id] {
			return &BallotError{Reason: "candidate " + id + " ranked twice"}
		}
		seen[id] = true
	}

	return nil
}

// ScoreBallots computes Borda points and first-place counts for every active
// candidate. A ballot that does not permute the active set is left out of the
// count and listed in Tally.Rejected; callers are expected to log those.
func ScoreBallots(ballots []models.Ballot, activeIDs []string) (Tally, error) {
	rules, err := ComputeRoundRules(len(activeIDs))
	if err != nil {
		return Tally{}, err
	}

	n := len(activeIDs)
	order := make(map[string]int, n)
	for i, id := range activeIDs {
		if _, dup := order[id]; dup {
			return Tally{}, fmt.Errorf("%w: %s", ErrDuplicateCandidates, id)
		}
		order[id] = i
	}

	interpretation := Interpretation(rules.VotingType)
	scores := make([]models.Score, n)
	for i, id := range activeIDs {
		scores[i] = models.Score{CandidateID: id, Interpretation: interpretation}
	}

	tally := Tally{Rules: rules}
	for _, ballot := range ballots {
		if err := ValidateBallot(ballot.Ranking, activeIDs); err != nil {
			reason := err.Error()
			if be, ok := err.(*BallotError); ok {
				reason = be.Reason
			}
			tally.Rejected = append(tally.Rejected, models.RejectedBallot{
				VoterID: ballot.VoterID,
				Reason:  reason,
			})
			continue
		}

		for i, id := range ballot.Ranking {
			s := &scores[order[id]]
			s.TotalPoints += n - i
			if i == 0 {
				s.FirstPlaceCount++
			}
		}
		tally.Counted++
	}

	// Stable so full ties keep the active-set order; TiedAt reports them.
	sort.SliceStable(scores, func(i, j int) bool {
		return outranks(scores[i], scores[j])
	})
	tally.Scores = scores

	return tally, nil
}

// outranks reports whether a sorts strictly ahead of b.
func outranks(a, b models.Score) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return a.FirstPlaceCount > b.FirstPlaceCount
}

func fullyTied(a, b models.Score) bool {
	return a.TotalPoints == b.TotalPoints && a.FirstPlaceCount == b.FirstPlaceCount
}

// TiedAt returns the candidates sharing the score at the boundary of the
// first cut entries, when that group straddles the boundary. The second
// value is how many of the group fall inside the cut. A nil slice means the
// cut is unambiguous.
func TiedAt(scores []models.Score, cut int) ([]string, int) {
	if cut <= 0 || cut >= len(scores) {
		return nil, 0
	}
	if !fullyTied(scores[cut-1], scores[cut]) {
		return nil, 0
	}

	start := cut - 1
	for start > 0 && fullyTied(scores[start-1], scores[cut]) {
		start--
	}
	end := cut + 1
	for end < len(scores) && fullyTied(scores[end], scores[cut]) {
		end++
	}

	ids := make([]string, 0, end-start)
	for _, s := range scores[start:end] {
		ids = append(ids, s.CandidateID)
	}
	return ids, cut - start
}

// BordaTotal is the number of points k valid ballots hand out over n candidates.
func BordaTotal(k, n int) int {
	return k * n * (n + 1) / 2
}
