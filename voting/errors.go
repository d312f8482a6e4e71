// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBallot        = errors.New("invalid ballot")
	ErrNoActiveCandidates   = errors.New("no active candidates")
	ErrConcurrentResolution = errors.New("round resolution already in progress")
	ErrPersistence          = errors.New("round resolution could not be persisted")
	ErrTieUnresolved        = errors.New("tie could not be resolved")

	ErrTripNotFound        = errors.New("trip not found")
	ErrNotVoting           = errors.New("trip is not in voting phase")
	ErrRoundNotOpen        = errors.New("round is not open for ballots")
	ErrBallotExists        = errors.New("ballot already submitted for this round")
	ErrStageTransition     = errors.New("invalid stage transition")
	ErrDuplicateCandidates = errors.New("duplicate candidate id in active set")
)

// TieError reports a full tie (same points and same first-place count)
// straddling the elimination or winner cut.
type TieError struct {
	Round   int
	TiedIDs []string
	Slots   int // how many of TiedIDs the cut needs
}

func (e *TieError) Error() string {
	return fmt.Sprintf("round %d: %d of %d tied candidates must be chosen: %s",
		e.Round, e.Slots, len(e.TiedIDs), strings.Join(e.TiedIDs, ", "))
}

func (e *TieError) Is(target error) bool {
	return target == ErrTieUnresolved
}

// BallotError explains why a ballot does not permute the active set.
type BallotError struct {
	VoterID string
	Reason  string
}

func (e *BallotError) Error() string {
	if e.VoterID == "" {
		return "invalid ballot: " + e.Reason
	}
	return fmt.Sprintf("invalid ballot from %s: %s", e.VoterID, e.Reason)
}

func (e *BallotError) Is(target error) bool {
	return target == ErrInvalidBallot
}
