// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/travelsphere/models"
)

// TiePolicy decides what happens when a full tie straddles the cut.
type TiePolicy string

const (
	TieFail   TiePolicy = "fail"   // surface *TieError, resolve nothing
	TieRandom TiePolicy = "random" // draw among the tied candidates
	TieByID   TiePolicy = "id"     // lowest candidate id goes first
)

// ParseTiePolicy accepts "fail", "random" or "id"; empty means fail.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch TiePolicy(s) {
	case "", TieFail:
		return TieFail, nil
	case TieRandom, TieByID:
		return TiePolicy(s), nil
	}
	return "", fmt.Errorf("unknown tie policy %q (want fail, random or id)", s)
}

type ResolverConfig struct {
	ResolveTimeout time.Duration
	RevealDuration time.Duration
	TiePolicy      TiePolicy
	Rand           *rand.Rand // for TieRandom; nil uses the global source
	Now            func() time.Time
	Logger         *slog.Logger
}

// Resolver closes rounds and admits ballots for trips held in a Store.
// At most one resolution per trip runs at a time, and ballots are refused
// while it does.
type Resolver struct {
	store  Store
	cfg    ResolverConfig
	locks  *tripLocks
	logger *slog.Logger

	randMu sync.Mutex
}

func NewResolver(store Store, cfg ResolverConfig) *Resolver {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 10 * time.Second
	}
	if cfg.RevealDuration < 0 {
		cfg.RevealDuration = 0
	}
	if cfg.TiePolicy == "" {
		cfg.TiePolicy = TieFail
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  store,
		cfg:    cfg,
		locks:  newTripLocks(),
		logger: logger,
	}
}

// SubmitBallot records one voter's ranking for the trip's current round.
// The ranking must permute the active candidates exactly.
func (r *Resolver) SubmitBallot(ctx context.Context, tripID string, ballot models.Ballot) (models.Ballot, error) {
	lock := r.locks.get(tripID)
	if !lock.gate.TryAcquire(1) {
		return models.Ballot{}, fmt.Errorf("%w: results are being calculated", ErrRoundNotOpen)
	}
	defer lock.gate.Release(1)

	trip, err := r.store.Trip(ctx, tripID)
	if err != nil {
		return models.Ballot{}, err
	}
	if trip.Phase != models.PhaseVoting {
		return models.Ballot{}, ErrNotVoting
	}

	now := r.cfg.Now()
	if !AcceptsBallots(trip, now) {
		return models.Ballot{}, ErrRoundNotOpen
	}

	candidates, err := r.store.ActiveCandidates(ctx, tripID)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to load active candidates: %w", err)
	}
	if err := ValidateBallot(ballot.Ranking, candidateIDs(candidates)); err != nil {
		var be *BallotError
		if errors.As(err, &be) {
			be.VoterID = ballot.VoterID
		}
		return models.Ballot{}, err
	}

	if ballot.ID == "" {
		ballot.ID = uuid.NewString()
	}
	ballot.TripID = tripID
	ballot.Round = trip.CurrentRound
	ballot.SubmittedAt = now

	if err := r.store.InsertBallot(ctx, ballot, now); err != nil {
		return models.Ballot{}, err
	}
	return ballot, nil
}

// ResolveRound scores the current round of a trip and applies the result:
// eliminations in a negative round, the winner in the final. Nothing is
// written unless everything is.
func (r *Resolver) ResolveRound(ctx context.Context, tripID string) (models.RoundOutcome, error) {
	lock := r.locks.get(tripID)
	if !lock.resolving.TryLock() {
		return models.RoundOutcome{}, ErrConcurrentResolution
	}
	defer lock.resolving.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ResolveTimeout)
	defer cancel()

	// Drain in-flight submissions; new ones are refused while we wait.
	if err := lock.gate.Acquire(ctx, gateWeight); err != nil {
		return models.RoundOutcome{}, fmt.Errorf("waiting for ballot submissions: %w", err)
	}
	defer lock.gate.Release(gateWeight)

	trip, err := r.store.Trip(ctx, tripID)
	if err != nil {
		return models.RoundOutcome{}, err
	}
	if trip.Phase != models.PhaseVoting {
		return models.RoundOutcome{}, ErrNotVoting
	}

	now := r.cfg.Now()
	if err := r.store.ClaimRound(ctx, tripID, trip.CurrentRound, now, now.Add(-r.cfg.ResolveTimeout)); err != nil {
		return models.RoundOutcome{}, err
	}

	outcome, err := r.resolveClaimed(ctx, trip)
	if err != nil {
		if rerr := r.store.ReleaseRound(context.WithoutCancel(ctx), tripID, trip.CurrentRound); rerr != nil {
			r.logger.Error("failed to release round claim", "trip_id", tripID, "round", trip.CurrentRound, "error", rerr)
		}
		return models.RoundOutcome{}, err
	}

	if outcome.WinnerID != nil {
		r.logger.Info("trip winner elected", "trip_id", tripID, "round", RoundLabel(outcome.Round), "winner_id", *outcome.WinnerID)
	} else {
		r.logger.Info("round resolved", "trip_id", tripID, "round", RoundLabel(outcome.Round),
			"eliminated", outcome.EliminatedIDs, "remaining", outcome.RemainingCount)
	}
	return outcome, nil
}

func (r *Resolver) resolveClaimed(ctx context.Context, trip models.Trip) (models.RoundOutcome, error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return models.RoundOutcome{}, fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer tx.Rollback()

	candidates, err := tx.ActiveCandidates(ctx, trip.ID)
	if err != nil {
		return models.RoundOutcome{}, fmt.Errorf("failed to load active candidates: %w", err)
	}
	if len(candidates) == 0 {
		return models.RoundOutcome{}, ErrNoActiveCandidates
	}

	ballots, err := tx.Ballots(ctx, trip.ID, trip.CurrentRound)
	if err != nil {
		return models.RoundOutcome{}, fmt.Errorf("failed to load ballots: %w", err)
	}

	activeIDs := candidateIDs(candidates)
	tally, err := ScoreBallots(ballots, activeIDs)
	if err != nil {
		return models.RoundOutcome{}, err
	}
	for _, rej := range tally.Rejected {
		r.logger.Warn("ballot excluded from count", "trip_id", trip.ID, "round", trip.CurrentRound,
			"voter_id", rej.VoterID, "reason", rej.Reason)
	}

	selected, tieBroken, err := r.selectCut(tally, trip.CurrentRound)
	if err != nil {
		return models.RoundOutcome{}, err
	}

	now := r.cfg.Now()
	outcome := models.RoundOutcome{
		TripID:        trip.ID,
		Round:         trip.CurrentRound,
		Phase:         tally.Rules.Phase,
		VotingType:    tally.Rules.VotingType,
		EliminatedIDs: []string{},
		Scores:        tally.Scores,
		Rejected:      tally.Rejected,
		TieBroken:     tieBroken,
		ComputedAt:    now,
	}

	if tally.Rules.VotingType == models.VotingPositive {
		winner := selected[0]
		outcome.WinnerID = &winner
		outcome.RemainingCount = 1
		if err := tx.MarkWinner(ctx, trip.ID, winner); err != nil {
			return models.RoundOutcome{}, fmt.Errorf("%w: mark winner: %w", ErrPersistence, err)
		}
	} else {
		outcome.EliminatedIDs = selected
		outcome.RemainingCount = len(activeIDs) - len(selected)
		if err := tx.MarkEliminated(ctx, trip.ID, trip.CurrentRound, selected); err != nil {
			return models.RoundOutcome{}, fmt.Errorf("%w: mark eliminated: %w", ErrPersistence, err)
		}
		next, err := ComputeRoundRules(outcome.RemainingCount)
		if err != nil {
			return models.RoundOutcome{}, err
		}
		outcome.NextRules = &next
	}

	if err := tx.DeleteBallots(ctx, trip.ID, trip.CurrentRound); err != nil {
		return models.RoundOutcome{}, fmt.Errorf("%w: delete ballots: %w", ErrPersistence, err)
	}
	if err := tx.RecordOutcome(ctx, outcome, now.Add(r.cfg.RevealDuration)); err != nil {
		return models.RoundOutcome{}, fmt.Errorf("%w: record outcome: %w", ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return models.RoundOutcome{}, fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}

	return outcome, nil
}

// selectCut picks the eliminated candidates (negative round) or the single
// winner (final) from the sorted scores, applying the tie policy when a
// full tie crosses the cut.
func (r *Resolver) selectCut(tally Tally, round int) ([]string, bool, error) {
	cut := tally.Rules.CountToEliminate
	if tally.Rules.VotingType == models.VotingPositive {
		cut = 1
	}

	tied, inside := TiedAt(tally.Scores, cut)
	if tied == nil {
		selected := make([]string, 0, cut)
		for _, s := range tally.Scores[:cut] {
			selected = append(selected, s.CandidateID)
		}
		return selected, false, nil
	}

	switch r.cfg.TiePolicy {
	case TieByID:
		sort.Strings(tied)
	case TieRandom:
		r.shuffle(tied)
	default:
		return nil, false, &TieError{Round: round, TiedIDs: tied, Slots: inside}
	}

	// Everything ranked above the tied group is in regardless.
	above := cut - inside
	selected := make([]string, 0, cut)
	for _, s := range tally.Scores[:above] {
		selected = append(selected, s.CandidateID)
	}
	selected = append(selected, tied[:inside]...)
	return selected, true, nil
}

func (r *Resolver) shuffle(ids []string) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }

	r.randMu.Lock()
	defer r.randMu.Unlock()
	if r.cfg.Rand != nil {
		r.cfg.Rand.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

func candidateIDs(candidates []models.Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
