package relay

import "sync"

// Registry maps user IDs to connection handles. One handle per user with
// last write wins, so a fresh login from a second tab steals the entry.
type Registry interface {
	// Bind associates a user with a connection handle, replacing any
	// previous binding for that user.
	Bind(userID, handle string)
	// Lookup returns the handle currently bound to the user.
	Lookup(userID string) (string, bool)
	// Online reports whether the user has a live binding.
	Online(userID string) bool
	// RemoveHandle drops whichever binding owns the handle and returns
	// the user it belonged to.
	RemoveHandle(handle string) (string, bool)
}

// MapRegistry is the in-memory Registry used in production. State is wiped
// on restart; clients re-announce on reconnect.
type MapRegistry struct {
	mu      sync.Mutex
	handles map[string]string // userID -> handle
}

// NewMapRegistry constructs an empty registry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{handles: make(map[string]string)}
}

func (r *MapRegistry) Bind(userID, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[userID] = handle
}

func (r *MapRegistry) Lookup(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.handles[userID]
	return handle, ok
}

func (r *MapRegistry) Online(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[userID]
	return ok
}

// RemoveHandle scans for the entry owning the handle. Linear in the number
// of online users, which disconnect volume keeps cheap in practice.
func (r *MapRegistry) RemoveHandle(handle string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, h := range r.handles {
		if h == handle {
			delete(r.handles, userID)
			return userID, true
		}
	}
	return "", false
}
