// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/travelsphere/models"
)

const (
	// finalistCount is the largest field that goes straight to the final.
	finalistCount = 3
	// knockoutCeiling is the largest field eliminated one at a time.
	knockoutCeiling = 8
	// maxBatchElimination caps how many candidates a purge round removes.
	maxBatchElimination = 3
)

// ComputeRoundRules returns the rules for a round with activeCount candidates
// still standing. It depends on nothing but its argument.
func ComputeRoundRules(activeCount int) (models.RoundRules, error) {
	if activeCount < 1 {
		return models.RoundRules{}, ErrNoActiveCandidates
	}

	// Final: elect the winner, nobody leaves
	if activeCount <= finalistCount {
		return models.RoundRules{
			Phase:            models.RoundPhaseFinal,
			CountToEliminate: 0,
			VotingType:       models.VotingPositive,
			Title:            "Grand final",
			Description:      "Rank your favourite first: the top city wins the trip.",
		}, nil
	}

	// Knockout: one city leaves per round
	if activeCount <= knockoutCeiling {
		return models.RoundRules{
			Phase:            models.RoundPhaseSingleKnockout,
			CountToEliminate: 1,
			VotingType:       models.VotingNegative,
			Title:            "Knockout",
			Description: fmt.Sprintf("Rank the city you want gone first: one leaves, %d remain.",
				activeCount-1),
		}, nil
	}

	// Purge: shrink toward the knockout field, at most three per round
	toEliminate := min(maxBatchElimination, activeCount-knockoutCeiling)
	return models.RoundRules{
		Phase:            models.RoundPhaseBatchPurge,
		CountToEliminate: toEliminate,
		VotingType:       models.VotingNegative,
		Title:            "The purge",
		Description: fmt.Sprintf("Rank the city you want gone first: %d leave, %d remain.",
			toEliminate, activeCount-toEliminate),
	}, nil
}

// Interpretation maps a voting type to the label shown next to scores.
func Interpretation(votingType string) string {
	if votingType == models.VotingPositive {
		return models.InterpretationLove
	}
	return models.InterpretationHate
}

// RoundLabel renders a round number for logs and titles ("3rd round").
func RoundLabel(round int) string {
	return humanize.Ordinal(round) + " round"
}

// MaxRoundsToFinal bounds how many elimination rounds a field of n
// candidates needs before it reaches the final.
func MaxRoundsToFinal(n int) int {
	if n <= finalistCount {
		return 0
	}
	rounds := 0
	if n > knockoutCeiling {
		rounds = (n - knockoutCeiling + maxBatchElimination - 1) / maxBatchElimination
		n = knockoutCeiling
	}
	return rounds + n - finalistCount
}
