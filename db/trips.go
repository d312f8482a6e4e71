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

	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

const participantColumns = `id, trip_id, name, token, is_admin, is_treasurer, joined_at`

func scanParticipant(row rowScanner) (models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.TripID, &p.Name, &p.Token, &p.IsAdmin, &p.IsTreasurer, &p.JoinedAt)
	return p, err
}

// CreateTrip inserts a trip in planning together with its creator, who
// starts out as admin and treasurer.
func (s *Store) CreateTrip(ctx context.Context, trip models.Trip, creator models.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trip (id, lobby_code, title, phase, current_round, stage, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, trip.ID, trip.LobbyCode, trip.Title, models.PhasePlanning, models.StageResult, trip.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	if err := insertParticipant(ctx, tx, creator); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trip: %w", err)
	}
	return nil
}

// TripByCode looks a trip up by its lobby code.
func (s *Store) TripByCode(ctx context.Context, code string) (models.Trip, error) {
	trip, err := scanTrip(s.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trip WHERE lobby_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, voting.ErrTripNotFound
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("failed to load trip: %w", err)
	}
	return trip, nil
}

// AddParticipant joins p to its trip. Names are unique per trip.
func (s *Store) AddParticipant(ctx context.Context, p models.Participant) error {
	return insertParticipant(ctx, s.db, p)
}

func insertParticipant(ctx context.Context, q Querier, p models.Participant) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO participant (id, trip_id, name, token, is_admin, is_treasurer, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.TripID, p.Name, p.Token, p.IsAdmin, p.IsTreasurer, p.JoinedAt.UTC())
	if IsUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (s *Store) ParticipantByToken(ctx context.Context, token string) (models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participant WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to load participant: %w", err)
	}
	return p, nil
}

func (s *Store) Participants(ctx context.Context, tripID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+participantColumns+` FROM participant
		WHERE trip_id = ?
		ORDER BY joined_at, id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetRole turns a role flag on or off. A trip always keeps one admin.
func (s *Store) SetRole(ctx context.Context, tripID, participantID, role string, value bool) (models.Participant, error) {
	var column string
	switch role {
	case models.RoleAdmin:
		column = "is_admin"
	case models.RoleTreasurer:
		column = "is_treasurer"
	default:
		return models.Participant{}, fmt.Errorf("unknown role %q", role)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if role == models.RoleAdmin && !value {
		var others int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM participant
			WHERE trip_id = ? AND id <> ? AND is_admin = ?
		`, tripID, participantID, true).Scan(&others)
		if err != nil {
			return models.Participant{}, fmt.Errorf("failed to count admins: %w", err)
		}
		if others == 0 {
			return models.Participant{}, ErrLastAdmin
		}
	}

	result, err := tx.ExecContext(ctx, `UPDATE participant SET `+column+` = ? WHERE id = ? AND trip_id = ?`,
		value, participantID, tripID)
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.Participant{}, ErrParticipantNotFound
	}

	p, err := scanParticipant(tx.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participant WHERE id = ?`, participantID))
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to reload participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Participant{}, fmt.Errorf("failed to commit role: %w", err)
	}
	return p, nil
}

// lockPlanningTrip fails unless the trip exists and is still in planning.
func (s *Store) lockPlanningTrip(ctx context.Context, tx *Tx, tripID string) error {
	var phase string
	err := tx.QueryRowContext(ctx, `SELECT phase FROM trip WHERE id = ?`+s.db.ForUpdate(), tripID).Scan(&phase)
	if errors.Is(err, sql.ErrNoRows) {
		return voting.ErrTripNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load trip: %w", err)
	}
	if phase != models.PhasePlanning {
		return ErrNotPlanning
	}
	return nil
}

// AddCandidate proposes a destination. Only allowed during planning.
func (s *Store) AddCandidate(ctx context.Context, c models.Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockPlanningTrip(ctx, tx, c.TripID); err != nil {
		return err
	}

	var viability any
	if len(c.Viability) > 0 {
		viability = string(c.Viability)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, trip_id, name, proposed_by, is_eliminated, viability, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TripID, c.Name, c.ProposedBy, false, viability, c.CreatedAt.UTC())
	if IsUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candidate: %w", err)
	}
	return nil
}

// RemoveCandidate deletes a proposal before voting starts.
func (s *Store) RemoveCandidate(ctx context.Context, tripID, candidateID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockPlanningTrip(ctx, tx, tripID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = ? AND trip_id = ?`, candidateID, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCandidateNotFound
	}

	return tx.Commit()
}

// Candidates lists every candidate of a trip, eliminated ones included.
func (s *Store) Candidates(ctx context.Context, tripID string) ([]models.Candidate, error) {
	candidates, err := queryCandidates(ctx, s.db, `SELECT `+candidateColumns+` FROM candidate
		WHERE trip_id = ?
		ORDER BY created_at, id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	return candidates, nil
}

// StartVoting opens round 1 with every proposed candidate active. Returns
// the number of candidates entering the vote.
func (s *Store) StartVoting(ctx context.Context, tripID string, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockPlanningTrip(ctx, tx, tripID); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidate WHERE trip_id = ?`, tripID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	if count < 2 {
		return 0, ErrTooFewCandidates
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE trip
		SET phase = ?, current_round = 1, initial_candidate_count = ?, stage = ?,
		    reveal_until_ms = NULL, claimed_at_ms = NULL, voting_started_at = ?
		WHERE id = ?
	`, models.PhaseVoting, count, models.StageResult, now.UTC(), tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to start voting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit voting start: %w", err)
	}
	return count, nil
}

// Voters returns the participant ids that have a ballot in round.
func (s *Store) Voters(ctx context.Context, tripID string, round int) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT voter_id FROM ballot WHERE trip_id = ? AND round = ?`, tripID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}
	defer rows.Close()

	voted := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voted[id] = true
	}
	return voted, rows.Err()
}

func (s *Store) BallotCount(ctx context.Context, tripID string, round int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot WHERE trip_id = ? AND round = ?`, tripID, round).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}

// Outcomes returns the round history of a trip, oldest first.
func (s *Store) Outcomes(ctx context.Context, tripID string) ([]models.RoundOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM round_result
		WHERE trip_id = ?
		ORDER BY round
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query round results: %w", err)
	}
	defer rows.Close()

	outcomes := []models.RoundOutcome{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan round result: %w", err)
		}
		var o models.RoundOutcome
		if err := json.Unmarshal([]byte(payload), &o); err != nil {
			return nil, fmt.Errorf("failed to decode round result: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// LatestOutcome returns the most recent round result, or nil before the
// first round closes.
func (s *Store) LatestOutcome(ctx context.Context, tripID string) (*models.RoundOutcome, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM round_result
		WHERE trip_id = ?
		ORDER BY round DESC
		LIMIT 1
	`, tripID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round result: %w", err)
	}

	var o models.RoundOutcome
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return nil, fmt.Errorf("failed to decode round result: %w", err)
	}
	return &o, nil
}
