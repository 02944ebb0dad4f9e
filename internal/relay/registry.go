package relay

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the set of live sessions. Admit, Remove, and Snapshot are
// safe to call concurrently; Snapshot returns a consistent copy of the live
// set at the moment of the call, so a broadcast pass never sees a torn view.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Admit records a new connection and returns its session, in state Connected
// with a freshly generated id.
func (r *Registry) Admit(conn Conn) *Session {
	s := &Session{
		id:    uuid.NewString(),
		conn:  conn,
		state: StateConnected,
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	return s
}

// Authenticate attaches a verified identity to a session and moves it to
// StateAuthenticated. It has no effect on a closed session.
func (r *Registry) Authenticate(s *Session, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.identity = identity
	s.state = StateAuthenticated
}

// Remove takes a session out of the live set and marks it Closed. It is
// idempotent: transports may signal close more than once, and only the first
// call returns true, so connection teardown runs exactly once.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	_, live := r.sessions[s.id]
	if live {
		delete(r.sessions, s.id)
	}
	r.mu.Unlock()

	if !live {
		return false
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	return true
}

// Snapshot returns the sessions live at the moment of the call. Sessions
// removed afterwards may or may not receive a message fanned out over the
// snapshot; that is the contract broadcast relies on.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// ForEachLive invokes fn once per session live when the iteration began.
func (r *Registry) ForEachLive(fn func(*Session)) {
	for _, s := range r.Snapshot() {
		fn(s)
	}
}

// Len reports the current number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
