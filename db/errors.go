// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import "errors"

// Lookup and lifecycle errors for the non-voting parts of a trip. Voting
// errors live in package voting and are returned unchanged.
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrNameTaken           = errors.New("name already taken in this trip")
	ErrNotPlanning         = errors.New("trip is no longer in planning phase")
	ErrTooFewCandidates    = errors.New("at least two candidates are needed to start voting")
	ErrLastAdmin           = errors.New("trip must keep at least one admin")
)
