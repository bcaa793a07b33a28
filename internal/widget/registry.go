package widget

import (
	"sync"
	"weak"
)

// Registry indexes live instances by session id for collaborators that need to
// find the instances sharing a session. It holds weak references only; the
// Manager owns the instances.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]weak.Pointer[Instance]
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[string]weak.Pointer[Instance])}
}

func (r *Registry) register(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.sessions[inst.sessionID]
	if !ok {
		entries = make(map[string]weak.Pointer[Instance])
		r.sessions[inst.sessionID] = entries
	}
	entries[inst.id] = weak.Make(inst)
}

// unregister removes the instance and the session key once nothing is left under it.
func (r *Registry) unregister(sessionID, instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(entries, instanceID)
	if len(entries) == 0 {
		delete(r.sessions, sessionID)
	}
}

// Lookup returns the live instances registered under sessionID. Entries whose
// instance has been collected are pruned.
func (r *Registry) Lookup(sessionID string) []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.sessions[sessionID]
	out := make([]*Instance, 0, len(entries))
	for id, wp := range entries {
		inst := wp.Value()
		if inst == nil {
			delete(entries, id)
			continue
		}
		out = append(out, inst)
	}
	if len(entries) == 0 {
		delete(r.sessions, sessionID)
	}
	return out
}

// Sessions returns the session ids with at least one registration.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// Len counts registrations across all sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, entries := range r.sessions {
		n += len(entries)
	}
	return n
}
