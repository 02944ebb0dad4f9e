package relay

import (
	"sync"
	"testing"
)

type nopConn struct{}

func (nopConn) Send([]byte) bool { return true }
func (nopConn) Close()           {}

func TestRegistry_AdmitAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := r.Admit(nopConn{})
		if s.ID() == "" {
			t.Fatalf("empty session id")
		}
		if seen[s.ID()] {
			t.Fatalf("duplicate session id %s", s.ID())
		}
		seen[s.ID()] = true
		if s.State() != StateConnected {
			t.Fatalf("expected StateConnected, got %v", s.State())
		}
	}
	if r.Len() != 100 {
		t.Fatalf("expected 100 live sessions, got %d", r.Len())
	}
}

func TestRegistry_Authenticate(t *testing.T) {
	r := NewRegistry()
	s := r.Admit(nopConn{})

	r.Authenticate(s, "alice")
	if s.State() != StateAuthenticated {
		t.Fatalf("expected StateAuthenticated, got %v", s.State())
	}
	if s.Identity() != "alice" {
		t.Fatalf("expected identity alice, got %q", s.Identity())
	}
}

func TestRegistry_Authenticate_ClosedSession(t *testing.T) {
	r := NewRegistry()
	s := r.Admit(nopConn{})
	r.Remove(s)

	r.Authenticate(s, "alice")
	if s.State() != StateClosed {
		t.Fatalf("closed session must stay closed, got %v", s.State())
	}
	if s.Identity() != "" {
		t.Fatalf("closed session must not gain an identity")
	}
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.Admit(nopConn{})
	b := r.Admit(nopConn{})

	if !r.Remove(a) {
		t.Fatalf("first Remove should report the removal")
	}
	if r.Remove(a) {
		t.Fatalf("second Remove should be a no-op")
	}
	if a.State() != StateClosed {
		t.Fatalf("expected StateClosed, got %v", a.State())
	}
	if r.Len() != 1 {
		t.Fatalf("other sessions must be unaffected, got %d live", r.Len())
	}

	found := false
	r.ForEachLive(func(s *Session) {
		if s == b {
			found = true
		}
		if s == a {
			t.Fatalf("removed session still iterated")
		}
	})
	if !found {
		t.Fatalf("remaining session missing from iteration")
	}
}

func TestRegistry_SnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	a := r.Admit(nopConn{})
	r.Admit(nopConn{})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected snapshot of 2, got %d", len(snap))
	}

	// Mutating the registry after the snapshot must not change the copy.
	r.Remove(a)
	r.Admit(nopConn{})
	if len(snap) != 2 {
		t.Fatalf("snapshot mutated after registry changes")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := r.Admit(nopConn{})
				r.Authenticate(s, "user")
				r.ForEachLive(func(*Session) {})
				r.Remove(s)
				r.Remove(s)
			}
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}
