// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, d *DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Timestamps compared in SQL (reveal deadline, claim age) are stored as
// unix milliseconds so the same comparison works on both databases.
const schema = `
-- Trips
CREATE TABLE IF NOT EXISTS trip (
    id TEXT PRIMARY KEY,
    lobby_code TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    phase TEXT NOT NULL DEFAULT 'planning' CHECK (phase IN ('planning', 'voting', 'finished')),
    current_round INTEGER NOT NULL DEFAULT 0,
    initial_candidate_count INTEGER NOT NULL DEFAULT 0,
    stage TEXT NOT NULL DEFAULT 'result' CHECK (stage IN ('calculating', 'revealing', 'result')),
    reveal_until_ms BIGINT,
    claimed_at_ms BIGINT,
    winner_candidate_id TEXT,
    voting_started_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_trip_phase ON trip(phase);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    token TEXT NOT NULL UNIQUE,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    is_treasurer BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (trip_id, name)
);

CREATE INDEX IF NOT EXISTS idx_participant_trip_id ON participant(trip_id);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    proposed_by TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    is_eliminated BOOLEAN NOT NULL DEFAULT FALSE,
    eliminated_round INTEGER,
    viability TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (trip_id, name)
);

CREATE INDEX IF NOT EXISTS idx_candidate_trip_id ON candidate(trip_id, is_eliminated);

-- Ballots, one per participant per round
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    round INTEGER NOT NULL,
    voter_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    ip_hash TEXT,
    user_agent TEXT,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (trip_id, round, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_trip_round ON ballot(trip_id, round);

-- Ballot rankings
CREATE TABLE IF NOT EXISTS ballot_rank (
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    position INTEGER NOT NULL CHECK (position >= 0),
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    PRIMARY KEY (ballot_id, position)
);

-- Round results
CREATE TABLE IF NOT EXISTS round_result (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    round INTEGER NOT NULL,
    payload TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (trip_id, round)
);

CREATE INDEX IF NOT EXISTS idx_round_result_trip_id ON round_result(trip_id)
`
