package service

import (
	"sync"

	"github.com/google/uuid"
)

// pairLock hands out one mutex per unordered user pair so the
// check-then-insert sequence for a pair is linearized within this process.
// Entries are never reclaimed; the map is bounded by the number of distinct
// pairs that ever interact.
type pairLock struct {
	locks sync.Map // string -> *sync.Mutex
}

func (p *pairLock) get(a, b uuid.UUID) *sync.Mutex {
	key := pairKey(a, b)
	if mu, ok := p.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := p.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// pairKey is direction-independent: {A,B} and {B,A} map to the same lock.
func pairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
