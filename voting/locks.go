// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// gateWeight is the semaphore size per trip. A submission takes 1, a
// resolution takes all of it.
const gateWeight = 1 << 16

type tripLock struct {
	resolving sync.Mutex
	gate      *semaphore.Weighted
}

// tripLocks hands out one lock pair per trip for the life of the process.
type tripLocks struct {
	mu    sync.Mutex
	trips map[string]*tripLock
}

func newTripLocks() *tripLocks {
	return &tripLocks{trips: make(map[string]*tripLock)}
}

func (l *tripLocks) get(tripID string) *tripLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.trips[tripID]
	if !ok {
		lock = &tripLock{gate: semaphore.NewWeighted(gateWeight)}
		l.trips[tripID] = lock
	}
	return lock
}
