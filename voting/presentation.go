// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"fmt"
	"time"

	"github.com/danielhkuo/travelsphere/models"
)

var transitions = map[string][]string{
	models.StageResult:      {models.StageCalculating},
	models.StageCalculating: {models.StageRevealing, models.StageResult},
	models.StageRevealing:   {models.StageResult},
}

// CanTransition reports whether a trip may move directly between stages.
// calculating -> result is the rollback of a failed resolution.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stagePath returns the stages entered walking from one stage to another,
// excluding from. Nil when from == to or either stage is unknown.
func stagePath(from, to string) []string {
	if from == to {
		return nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range transitions[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				var path []string
				for s := to; s != from; s = prev[s] {
					path = append([]string{s}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// EffectiveStage is the stage clients should see at now. A reveal whose
// deadline passed reads as result without needing a write.
func EffectiveStage(trip models.Trip, now time.Time) string {
	if trip.Stage == models.StageRevealing && trip.RevealUntil != nil && !now.Before(*trip.RevealUntil) {
		return models.StageResult
	}
	if trip.Stage == "" {
		return models.StageResult
	}
	return trip.Stage
}

// AcceptsBallots reports whether the trip's current round is open at now.
func AcceptsBallots(trip models.Trip, now time.Time) bool {
	return trip.Phase == models.PhaseVoting && EffectiveStage(trip, now) == models.StageResult
}

// Viewer tracks what one polling client shows. It always starts in
// calculating and only moves along allowed transitions, so a client that
// missed a reveal between polls still passes through it.
type Viewer struct {
	stage         string
	round         int
	revealedRound int
	votedRound    int
	finished      bool
}

func NewViewer() *Viewer {
	return &Viewer{stage: models.StageCalculating}
}

func (v *Viewer) Stage() string { return v.stage }

func (v *Viewer) Finished() bool { return v.finished }

// Observe folds a polled snapshot into the viewer and returns the stages it
// entered, in order.
func (v *Viewer) Observe(snap models.TripSnapshot) ([]string, error) {
	target := snap.Stage
	if _, ok := transitions[target]; !ok {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrStageTransition, target)
	}

	unseen := snap.LastOutcome != nil && snap.LastOutcome.Round > v.revealedRound

	var entered []string
	if unseen && target == models.StageResult && v.stage != models.StageRevealing {
		entered = append(entered, stagePath(v.stage, models.StageRevealing)...)
		entered = append(entered, models.StageResult)
	} else {
		entered = stagePath(v.stage, target)
	}

	if len(entered) > 0 {
		v.stage = entered[len(entered)-1]
	}
	if snap.LastOutcome != nil && v.stage != models.StageCalculating && snap.LastOutcome.Round > v.revealedRound {
		v.revealedRound = snap.LastOutcome.Round
	}
	v.round = snap.Trip.CurrentRound
	v.finished = snap.Trip.Phase == models.PhaseFinished

	return entered, nil
}

// CanSubmit reports whether the client may cast a ballot now.
func (v *Viewer) CanSubmit(snap models.TripSnapshot) bool {
	return v.stage == models.StageResult &&
		!v.finished &&
		snap.AcceptsVote &&
		snap.Trip.CurrentRound == v.round &&
		v.votedRound != v.round
}

// MarkVoted records a ballot cast for the current round.
func (v *Viewer) MarkVoted() {
	v.votedRound = v.round
}
