// Package relay contains the live-connection core of the chat system: the
// session registry and the broadcast engine. It is transport-agnostic; the
// websocket layer plugs in through the Conn interface.
package relay

import "sync"

// State is the lifecycle state of a session.
type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the transport handle attached to a session.
//
// Send queues a payload for delivery and must not block: it returns false
// when the connection's outbound buffer is full or the connection is gone,
// in which case the caller schedules eviction. Close is idempotent.
type Conn interface {
	Send(payload []byte) bool
	Close()
}

// Session is the in-memory representation of one live client connection.
// Its id is unique for the whole session lifetime. The registry exclusively
// owns the id → session mapping; identity and state transitions go through
// the registry as well.
type Session struct {
	id   string
	conn Conn

	mu       sync.Mutex
	identity string
	state    State
}

func (s *Session) ID() string { return s.id }

func (s *Session) Conn() Conn { return s.conn }

// Identity returns the verified identity, or "" while unauthenticated.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
