package ws

import (
	"sync"
)

// Registry is the process-wide map from group id to the live connections of
// that group. It is constructor-injected into the Gateway so tests get a fresh
// one, and mutex-guarded because connection goroutines touch it concurrently.
//
// A Client is bound to exactly one group for its whole lifetime, so a
// connection can never appear under two groups.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]map[*Client]struct{})}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[c.groupID]
	if !ok {
		set = make(map[*Client]struct{})
		r.groups[c.groupID] = set
	}
	set[c] = struct{}{}
}

// Remove deregisters the connection and prunes the group's set once empty.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[c.groupID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.groups, c.groupID)
	}
}

// Connections returns a snapshot of the group's live connections; broadcast
// iterates the snapshot so a slow or failing send never holds the lock.
func (r *Registry) Connections(groupID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.groups[groupID]
	conns := make([]*Client, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Contains(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.groups[c.groupID][c]
	return ok
}

// GroupCount reports how many groups currently have at least one connection.
func (r *Registry) GroupCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}
