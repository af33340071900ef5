package app

import (
	"testing"

	"github.com/dkeye/Roulette/internal/domain"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	id := r.Register(conn, "tok-1", nil)
	if got, ok := r.Conn(id); !ok || got != conn {
		t.Fatal("registered connection not found")
	}
	if st, ok := r.State(id); !ok || st != domain.StateIdle {
		t.Errorf("fresh participant state = %v, want idle", st)
	}
	if r.ClientToken(id) != "tok-1" {
		t.Errorf("client token lost")
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	id := r.Register(&fakeConn{}, "", nil)

	if !r.Unregister(id) {
		t.Fatal("first unregister did nothing")
	}
	if r.Unregister(id) {
		t.Fatal("second unregister claimed to remove again")
	}
	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}

func TestRegistrySessionBinding(t *testing.T) {
	r := NewRegistry()
	id := r.Register(&fakeConn{}, "", nil)

	if !r.BindSession(id, "s1") {
		t.Fatal("bind failed")
	}
	if sid, ok := r.SessionOf(id); !ok || sid != "s1" {
		t.Fatalf("session of participant = %v, want s1", sid)
	}
	if st, _ := r.State(id); st != domain.StatePaired {
		t.Errorf("state = %v, want paired", st)
	}

	r.ClearSession(id)
	if _, ok := r.SessionOf(id); ok {
		t.Error("session key survived clear")
	}
	if st, _ := r.State(id); st != domain.StateIdle {
		t.Errorf("state = %v, want idle after clear", st)
	}
}
