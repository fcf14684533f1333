package presence

import (
	"sort"
	"sync"
)

// Registry tracks which users currently hold a live connection. It is
// authoritative only for "is this user reachable right now": a
// successful lookup does not guarantee a later delivery attempt lands.
//
// H is the connection handle type. Registering an ID that is already
// present replaces the old handle; the superseded connection is not
// closed here, that policy belongs to the caller. Empty at process
// start, rebuilt from nothing as users reconnect.
type Registry[H comparable] struct {
	mu      sync.RWMutex
	handles map[string]H
}

// NewRegistry creates an empty registry.
func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{handles: make(map[string]H)}
}

// Register stores the handle for userID, replacing any previous one.
func (r *Registry[H]) Register(userID string, handle H) {
	r.mu.Lock()
	r.handles[userID] = handle
	r.mu.Unlock()
}

// Unregister removes userID's entry only if it still maps to handle.
// A connection that has been superseded by a newer one must not remove
// its successor on the way out.
func (r *Registry[H]) Unregister(userID string, handle H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.handles[userID]; ok && current == handle {
		delete(r.handles, userID)
		return true
	}
	return false
}

// Lookup returns the active handle for userID, if any.
func (r *Registry[H]) Lookup(userID string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[userID]
	return h, ok
}

// ActiveIDs returns the IDs of all currently registered users, sorted
// for stable broadcasts.
func (r *Registry[H]) ActiveIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the current registrations.
func (r *Registry[H]) Snapshot() map[string]H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]H, len(r.handles))
	for id, h := range r.handles {
		out[id] = h
	}
	return out
}
