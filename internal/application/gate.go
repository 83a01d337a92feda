package application

import (
	"sync"

	"github.com/example/shiftvote/internal/period"
)

// Gate serializes quota-sensitive work. Vote submissions for the same voter
// in the same period run one at a time, so the check-then-record sequence can
// never overshoot the quota; submissions for disjoint voters or periods
// proceed in parallel. Administrative rebuild and reset take the whole period
// exclusively, blocking every voter of that period. A period's bookkeeping is
// dropped once its last holder releases, so closed periods do not accumulate
// over the life of the process.
type Gate struct {
	mu      sync.Mutex
	periods map[period.Key]*periodGate
}

type periodGate struct {
	refs   int
	admin  sync.RWMutex
	mu     sync.Mutex
	voters map[string]*sync.Mutex
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{periods: make(map[period.Key]*periodGate)}
}

// acquire hands out the period's gate and pins it in the map. refs counts
// holders and waiters, so a gate is never dropped while anyone still blocks
// on it.
func (g *Gate) acquire(key period.Key) *periodGate {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate, ok := g.periods[key]
	if !ok {
		gate = &periodGate{voters: make(map[string]*sync.Mutex)}
		g.periods[key] = gate
	}
	gate.refs++
	return gate
}

func (g *Gate) release(key period.Key, gate *periodGate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate.refs--
	if gate.refs == 0 {
		delete(g.periods, key)
	}
}

// LockVoter acquires the submission lock for one (voter, period) pair and
// returns the release function. The release function must be called exactly
// once.
func (g *Gate) LockVoter(key period.Key, empID string) func() {
	gate := g.acquire(key)
	gate.admin.RLock()

	gate.mu.Lock()
	voter, ok := gate.voters[empID]
	if !ok {
		voter = &sync.Mutex{}
		gate.voters[empID] = voter
	}
	gate.mu.Unlock()

	voter.Lock()
	return func() {
		voter.Unlock()
		gate.admin.RUnlock()
		g.release(key, gate)
	}
}

// LockPeriod acquires the period exclusively for administrative mutation and
// returns the release function. The release function must be called exactly
// once.
func (g *Gate) LockPeriod(key period.Key) func() {
	gate := g.acquire(key)
	gate.admin.Lock()
	return func() {
		gate.admin.Unlock()
		g.release(key, gate)
	}
}
