// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"time"

	"github.com/danielhkuo/travelsphere/models"
)

// Store is the persistence the voting engine needs. Implementations must
// return the package's sentinel errors where documented.
type Store interface {
	// Trip returns ErrTripNotFound for an unknown id.
	Trip(ctx context.Context, tripID string) (models.Trip, error)
	ActiveCandidates(ctx context.Context, tripID string) ([]models.Candidate, error)

	// InsertBallot stores a ballot for ballot.Round only if that round is
	// still current and accepting ballots at now (ErrRoundNotOpen), and the
	// voter has no ballot for it yet (ErrBallotExists).
	InsertBallot(ctx context.Context, ballot models.Ballot, now time.Time) error

	// ClaimRound moves the trip to StageCalculating for round. It fails with
	// ErrConcurrentResolution when the round has moved on or another claim
	// newer than staleBefore holds it.
	ClaimRound(ctx context.Context, tripID string, round int, now, staleBefore time.Time) error
	// ReleaseRound returns a claimed round to StageResult without changes.
	ReleaseRound(ctx context.Context, tripID string, round int) error

	Begin(ctx context.Context) (Tx, error)
}

// Tx is one all-or-nothing resolution write.
type Tx interface {
	ActiveCandidates(ctx context.Context, tripID string) ([]models.Candidate, error)
	Ballots(ctx context.Context, tripID string, round int) ([]models.Ballot, error)
	MarkEliminated(ctx context.Context, tripID string, round int, candidateIDs []string) error
	MarkWinner(ctx context.Context, tripID, candidateID string) error
	DeleteBallots(ctx context.Context, tripID string, round int) error
	// RecordOutcome appends round history and moves the trip to the next
	// round (or finishes it) in StageRevealing until revealUntil.
	RecordOutcome(ctx context.Context, outcome models.RoundOutcome, revealUntil time.Time) error

	Commit() error
	// Rollback after a successful Commit is a no-op.
	Rollback() error
}
