package ledger

import (
	"sort"
	"sync"
)

// lotLocks serializes writes per lot. Locks are acquired in sorted ID
// order so multi-lot operations (transformations) cannot deadlock each
// other. Lock entries are never removed; the set of active lots in one
// process is small relative to the cost of refcounting.
type lotLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLotLocks() *lotLocks {
	return &lotLocks{locks: make(map[string]*sync.Mutex)}
}

// forLot returns the mutex guarding a lot, creating it on first use.
func (ll *lotLocks) forLot(lotID string) *sync.Mutex {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	m, ok := ll.locks[lotID]
	if !ok {
		m = &sync.Mutex{}
		ll.locks[lotID] = m
	}
	return m
}

// withLots runs fn while holding the locks for every given lot.
// Duplicate IDs are collapsed; acquisition order is sorted.
func (ll *lotLocks) withLots(lotIDs []string, fn func() error) error {
	unique := make(map[string]bool, len(lotIDs))
	ids := make([]string, 0, len(lotIDs))
	for _, id := range lotIDs {
		if !unique[id] {
			unique[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		ll.forLot(id).Lock()
	}
	defer func() {
		for i := len(ids) - 1; i >= 0; i-- {
			ll.forLot(ids[i]).Unlock()
		}
	}()

	return fn()
}
