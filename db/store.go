// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

var (
	_ voting.Store = (*Store)(nil)
	_ voting.Tx    = (*storeTx)(nil)
)

// Store persists trips and everything hanging off them. It implements
// voting.Store for the round resolver and adds the queries the HTTP
// handlers need.
type Store struct {
	db *DB
}

func NewStore(d *DB) *Store {
	return &Store{db: d}
}

// DB returns the underlying connection.
func (s *Store) DB() *DB { return s.db }

const tripColumns = `id, lobby_code, title, phase, current_round, initial_candidate_count,
	stage, reveal_until_ms, winner_candidate_id, voting_started_at, created_at`

const candidateColumns = `id, trip_id, name, proposed_by, is_eliminated, eliminated_round, viability, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t        models.Trip
		revealMS sql.NullInt64
		winner   sql.NullString
		started  sql.NullTime
	)
	err := row.Scan(&t.ID, &t.LobbyCode, &t.Title, &t.Phase, &t.CurrentRound, &t.InitialCandidateCount,
		&t.Stage, &revealMS, &winner, &started, &t.CreatedAt)
	if err != nil {
		return models.Trip{}, err
	}
	if revealMS.Valid {
		until := time.UnixMilli(revealMS.Int64).UTC()
		t.RevealUntil = &until
	}
	if winner.Valid {
		t.WinnerCandidateID = &winner.String
	}
	if started.Valid {
		t.VotingStartedAt = &started.Time
	}
	return t, nil
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var (
		c         models.Candidate
		round     sql.NullInt64
		viability sql.NullString
	)
	err := row.Scan(&c.ID, &c.TripID, &c.Name, &c.ProposedBy, &c.IsEliminated, &round, &viability, &c.CreatedAt)
	if err != nil {
		return models.Candidate{}, err
	}
	if round.Valid {
		r := int(round.Int64)
		c.EliminatedRound = &r
	}
	if viability.Valid && viability.String != "" {
		c.Viability = json.RawMessage(viability.String)
	}
	return c, nil
}

// Trip returns voting.ErrTripNotFound for an unknown id.
func (s *Store) Trip(ctx context.Context, tripID string) (models.Trip, error) {
	trip, err := scanTrip(s.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trip WHERE id = ?`, tripID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, voting.ErrTripNotFound
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("failed to load trip: %w", err)
	}
	return trip, nil
}

func (s *Store) ActiveCandidates(ctx context.Context, tripID string) ([]models.Candidate, error) {
	return activeCandidates(ctx, s.db, tripID)
}

// activeCandidates lists the candidates still standing in proposal order.
// That order is the active-set order the scorer keeps for full ties.
func activeCandidates(ctx context.Context, q Querier, tripID string) ([]models.Candidate, error) {
	return queryCandidates(ctx, q, `SELECT `+candidateColumns+` FROM candidate
		WHERE trip_id = ? AND is_eliminated = ?
		ORDER BY created_at, id`, tripID, false)
}

func queryCandidates(ctx context.Context, q Querier, query string, args ...any) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// InsertBallot stores the ballot and its ranking if ballot.Round is the
// trip's open round at now.
func (s *Store) InsertBallot(ctx context.Context, ballot models.Ballot, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		phase, stage string
		round        int
		revealMS     sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `SELECT phase, current_round, stage, reveal_until_ms FROM trip WHERE id = ?`+s.db.ForUpdate(),
		ballot.TripID).Scan(&phase, &round, &stage, &revealMS)
	if errors.Is(err, sql.ErrNoRows) {
		return voting.ErrTripNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load trip: %w", err)
	}
	if phase != models.PhaseVoting {
		return voting.ErrNotVoting
	}

	revealed := stage == models.StageRevealing && revealMS.Valid && revealMS.Int64 <= now.UnixMilli()
	if round != ballot.Round || (stage != models.StageResult && !revealed) {
		return voting.ErrRoundNotOpen
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot (id, trip_id, round, voter_id, ip_hash, user_agent, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ballot.ID, ballot.TripID, ballot.Round, ballot.VoterID,
		nullString(ballot.IPHash), nullString(ballot.UserAgent), ballot.SubmittedAt.UTC())
	if IsUniqueViolation(err) {
		return voting.ErrBallotExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	for i, candidateID := range ballot.Ranking {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot_rank (ballot_id, position, candidate_id)
			VALUES (?, ?, ?)
		`, ballot.ID, i, candidateID)
		if err != nil {
			return fmt.Errorf("failed to insert ranking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ballot: %w", err)
	}
	return nil
}

// ClaimRound moves an open (or stale calculating) round to calculating.
// It commits on its own so polling clients see the stage immediately.
func (s *Store) ClaimRound(ctx context.Context, tripID string, round int, now, staleBefore time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trip SET stage = ?, claimed_at_ms = ?
		WHERE id = ? AND phase = ? AND current_round = ?
		  AND (stage = ?
		       OR (stage = ? AND reveal_until_ms <= ?)
		       OR (stage = ? AND claimed_at_ms <= ?))
	`, models.StageCalculating, now.UnixMilli(),
		tripID, models.PhaseVoting, round,
		models.StageResult,
		models.StageRevealing, now.UnixMilli(),
		models.StageCalculating, staleBefore.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: claim round: %w", voting.ErrPersistence, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: claim round: %w", voting.ErrPersistence, err)
	}
	if n == 1 {
		return nil
	}

	if _, err := s.Trip(ctx, tripID); err != nil {
		return err
	}
	return voting.ErrConcurrentResolution
}

func (s *Store) ReleaseRound(ctx context.Context, tripID string, round int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE trip SET stage = ?, claimed_at_ms = NULL
		WHERE id = ? AND current_round = ? AND stage = ?
	`, models.StageResult, tripID, round, models.StageCalculating)
	if err != nil {
		return fmt.Errorf("failed to release round: %w", err)
	}
	return nil
}

func (s *Store) Begin(ctx context.Context) (voting.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx}, nil
}

// storeTx is one round resolution.
type storeTx struct {
	tx *Tx
}

func (t *storeTx) ActiveCandidates(ctx context.Context, tripID string) ([]models.Candidate, error) {
	return activeCandidates(ctx, t.tx, tripID)
}

func (t *storeTx) Ballots(ctx context.Context, tripID string, round int) ([]models.Ballot, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT b.id, b.voter_id, b.submitted_at, r.candidate_id
		FROM ballot b
		LEFT JOIN ballot_rank r ON r.ballot_id = b.id
		WHERE b.trip_id = ? AND b.round = ?
		ORDER BY b.submitted_at, b.id, r.position
	`, tripID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var (
			id, voterID string
			submittedAt time.Time
			candidateID sql.NullString
		)
		if err := rows.Scan(&id, &voterID, &submittedAt, &candidateID); err != nil {
			return nil, err
		}

		if n := len(ballots); n == 0 || ballots[n-1].ID != id {
			ballots = append(ballots, models.Ballot{
				ID:          id,
				TripID:      tripID,
				Round:       round,
				VoterID:     voterID,
				Ranking:     []string{},
				SubmittedAt: submittedAt,
			})
		}
		if candidateID.Valid {
			last := &ballots[len(ballots)-1]
			last.Ranking = append(last.Ranking, candidateID.String)
		}
	}
	return ballots, rows.Err()
}

func (t *storeTx) MarkEliminated(ctx context.Context, tripID string, round int, candidateIDs []string) error {
	for _, id := range candidateIDs {
		result, err := t.tx.ExecContext(ctx, `
			UPDATE candidate SET is_eliminated = ?, eliminated_round = ?
			WHERE id = ? AND trip_id = ? AND is_eliminated = ?
		`, true, round, id, tripID, false)
		if err != nil {
			return err
		}
		if err := expectOneRow(result, "candidate "+id+" is not active"); err != nil {
			return err
		}
	}
	return nil
}

func (t *storeTx) MarkWinner(ctx context.Context, tripID, candidateID string) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE trip SET winner_candidate_id = ?, phase = ?
		WHERE id = ? AND phase = ?
	`, candidateID, models.PhaseFinished, tripID, models.PhaseVoting)
	if err != nil {
		return err
	}
	return expectOneRow(result, "trip "+tripID+" is not voting")
}

func (t *storeTx) DeleteBallots(ctx context.Context, tripID string, round int) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM ballot_rank
		WHERE ballot_id IN (SELECT id FROM ballot WHERE trip_id = ? AND round = ?)
	`, tripID, round)
	if err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, `DELETE FROM ballot WHERE trip_id = ? AND round = ?`, tripID, round)
	return err
}

func (t *storeTx) RecordOutcome(ctx context.Context, outcome models.RoundOutcome, revealUntil time.Time) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO round_result (id, trip_id, round, payload, computed_at)
		VALUES (?, ?, ?, ?, ?)
	`, ulid.Make().String(), outcome.TripID, outcome.Round, string(payload), outcome.ComputedAt.UTC())
	if err != nil {
		return err
	}

	// The final leaves current_round on the deciding round.
	next := outcome.Round + 1
	if outcome.WinnerID != nil {
		next = outcome.Round
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE trip SET current_round = ?, stage = ?, reveal_until_ms = ?, claimed_at_ms = NULL
		WHERE id = ? AND current_round = ? AND stage = ?
	`, next, models.StageRevealing, revealUntil.UnixMilli(),
		outcome.TripID, outcome.Round, models.StageCalculating)
	if err != nil {
		return err
	}
	return expectOneRow(result, fmt.Sprintf("trip %s round %d is no longer claimed", outcome.TripID, outcome.Round))
}

func (t *storeTx) Commit() error {
	return t.tx.Commit()
}

func (t *storeTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func expectOneRow(result sql.Result, msg string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.New(msg)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
