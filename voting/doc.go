// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements the destination-elimination engine.

# Round Rules

ComputeRoundRules maps the number of active candidates to a phase:

	<= 3 candidates  FINAL            nobody leaves, top candidate wins (POSITIVE)
	4 to 8           SINGLE_KNOCKOUT  1 leaves (NEGATIVE)
	> 8              BATCH_PURGE      min(3, n-8) leave (NEGATIVE)

A field of n > 8 reaches the final in ceil((n-8)/3) + 5 rounds.

# Scoring

ScoreBallots applies a Borda count: the candidate at index i of a ballot
earns n-i points, and index 0 also earns a first-place. Scores sort by
points, then first places. In a NEGATIVE round the top of the table is the
most hated; in the final it is the most loved.

Ballots that do not rank exactly the active set are excluded and returned
in Tally.Rejected so the caller can log them. SubmitBallot rejects such
ballots before they are stored.

# Resolution

Resolver.ResolveRound closes a round:

	claim round (stage -> calculating)
	begin
	  load active candidates and ballots
	  rules, score, pick the cut (tie policy if a full tie crosses it)
	  mark eliminated or mark winner
	  delete the round's ballots
	  record outcome, next round, stage -> revealing
	commit

Any failure rolls the transaction back and releases the claim, leaving
ballots intact so the call can be retried.

# Stages

Trips carry a persisted presentation stage (calculating, revealing, result)
so every polling client shows the same thing. Viewer tracks one client's
view of it.
*/
package voting
