// Package symbolstate owns the per-symbol mutable state the coordinator
// depends on: the last order/exit timestamps used for cooldowns and the
// exclusion gate that keeps at most one run in flight per symbol.
//
// The store is constructed once at process start and injected; state is
// process-local and intentionally resets on restart.
package symbolstate

import (
	"sync"
	"time"
)

type entry struct {
	gate          sync.Mutex
	lastOrderTime time.Time
	lastExitTime  time.Time
}

// Store maps symbol to its cooldown state and exclusion gate.
type Store struct {
	mu      sync.Mutex
	symbols map[string]*entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		symbols: make(map[string]*entry),
	}
}

func (s *Store) entryFor(symbol string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.symbols[symbol]
	if !ok {
		e = &entry{}
		s.symbols[symbol] = e
	}

	return e
}

// Acquire takes the symbol's exclusion gate without blocking. A false return
// means another run is in flight; the caller must skip, never queue.
// Cooldown timestamps are only valid while the lease is held.
func (s *Store) Acquire(symbol string) (*Lease, bool) {
	e := s.entryFor(symbol)
	if !e.gate.TryLock() {
		return nil, false
	}

	return &Lease{entry: e}, true
}

// Lease is exclusive access to one symbol's state. Release it exactly once.
type Lease struct {
	entry *entry
}

// Release returns the gate.
func (l *Lease) Release() {
	l.entry.gate.Unlock()
}

// LastOrderTime is the time of the last successful entry placement.
func (l *Lease) LastOrderTime() time.Time {
	return l.entry.lastOrderTime
}

// SetLastOrderTime records a successful entry placement.
func (l *Lease) SetLastOrderTime(t time.Time) {
	l.entry.lastOrderTime = t
}

// ClearLastOrderTime drops the entry cooldown. Called after a successful
// exit so a reversal is not blocked by a stale entry cooldown.
func (l *Lease) ClearLastOrderTime() {
	l.entry.lastOrderTime = time.Time{}
}

// LastExitTime is the time of the last successful exit.
func (l *Lease) LastExitTime() time.Time {
	return l.entry.lastExitTime
}

// SetLastExitTime records a successful exit.
func (l *Lease) SetLastExitTime(t time.Time) {
	l.entry.lastExitTime = t
}
