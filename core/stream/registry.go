package stream

import (
	"sort"
	"sync"

	"github.com/kilianp07/livetrack/core/model"
)

// Registry tracks one subscription entry per order id. Writes are
// serialized by a lock; readers never mutate it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]model.SubscriptionState
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]model.SubscriptionState)}
}

// Add inserts a Pending entry. It reports false when the id is already present.
func (r *Registry) Add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return false
	}
	r.entries[id] = model.Pending
	return true
}

// Remove deletes the entry and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Get returns the state of id.
func (r *Registry) Get(id string) (model.SubscriptionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.entries[id]
	return st, ok
}

// MarkActive moves an existing entry to Active. It reports false when the
// id is no longer tracked.
func (r *Registry) MarkActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	r.entries[id] = model.Active
	return true
}

// ResetAll moves every entry back to Pending and returns how many were Active.
func (r *Registry) ResetAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, st := range r.entries {
		if st == model.Active {
			n++
		}
		r.entries[id] = model.Pending
	}
	return n
}

// IDs returns all tracked ids in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Entries returns a snapshot of all entries ordered by id.
func (r *Registry) Entries() []model.SubscriptionEntry {
	r.mu.RLock()
	res := make([]model.SubscriptionEntry, 0, len(r.entries))
	for id, st := range r.entries {
		res = append(res, model.SubscriptionEntry{OrderID: id, State: st})
	}
	r.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].OrderID < res[j].OrderID })
	return res
}

// Counts returns the number of Active and Pending entries.
func (r *Registry) Counts() (active, pending int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.entries {
		if st == model.Active {
			active++
		} else {
			pending++
		}
	}
	return active, pending
}
