package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
)

// pair wires two connected participants into one session.
func pair(t *testing.T, o *Orchestrator) (a, b domain.ParticipantID, connA, connB *fakeConn) {
	t.Helper()
	a, connA = connect(o)
	b, connB = connect(o)
	if res := o.Matchmaker.RequestMatch(a, profileFor("A", "pA")); !res.Enqueued {
		t.Fatal("setup: A should wait")
	}
	if res := o.Matchmaker.RequestMatch(b, profileFor("B", "pB")); res.Enqueued {
		t.Fatal("setup: B should pair")
	}
	return a, b, connA, connB
}

func TestRelayMessage(t *testing.T) {
	o := newTestOrchestrator()
	a, _, _, connB := pair(t, o)
	_, connC := connect(o)

	o.Sessions.RelayMessage(a, "hi")

	got := connB.noticesOfType(t, "message_received")
	if len(got) != 1 || got[0]["text"] != "hi" {
		t.Fatalf("B received %v, want one message_received{hi}", got)
	}
	if len(connC.notices(t)) != 0 {
		t.Error("unrelated participant received the relayed message")
	}
}

func TestRelayWithoutSessionIsSilent(t *testing.T) {
	o := newTestOrchestrator()
	a, connA := connect(o)

	o.Sessions.RelayMessage(a, "into the void")

	if len(connA.notices(t)) != 0 {
		t.Error("sender was notified about a dropped relay")
	}
}

func TestEndCall(t *testing.T) {
	o := newTestOrchestrator()
	a, b, connA, connB := pair(t, o)

	o.Sessions.EndCall(a)

	if got := connB.noticesOfType(t, "call_ended"); len(got) != 1 {
		t.Fatalf("B got %d call_ended, want 1", len(got))
	}
	if got := connA.noticesOfType(t, "call_ended"); len(got) != 0 {
		t.Errorf("the ending side notified itself")
	}
	for _, id := range []domain.ParticipantID{a, b} {
		if st, _ := o.Registry.State(id); st != domain.StateIdle {
			t.Errorf("state of %s = %v, want idle", id, st)
		}
	}
	if o.Sessions.OpenCount() != 0 {
		t.Error("session still open after end_call")
	}
	// Ended participants are not auto-requeued.
	if o.Pool.Len() != 0 {
		t.Error("a participant was requeued without asking")
	}
}

func TestDoubleEndCallClosesOnce(t *testing.T) {
	o := newTestOrchestrator()
	a, b, connA, connB := pair(t, o)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); o.Sessions.EndCall(a) }()
	go func() { defer wg.Done(); o.Sessions.EndCall(b) }()
	wg.Wait()

	total := len(connA.noticesOfType(t, "call_ended")) + len(connB.noticesOfType(t, "call_ended"))
	if total != 1 {
		t.Fatalf("%d call_ended notices delivered, want exactly 1", total)
	}
	if o.Sessions.OpenCount() != 0 {
		t.Error("session survived a double close")
	}
}

func TestDisconnectWhilePaired(t *testing.T) {
	o := newTestOrchestrator()
	a, b, _, connB := pair(t, o)

	o.Disconnect(a)

	if got := connB.noticesOfType(t, "peer_disconnected"); len(got) != 1 {
		t.Fatalf("B got %d peer_disconnected, want exactly 1", len(got))
	}
	if got := connB.noticesOfType(t, "call_ended"); len(got) != 0 {
		t.Error("involuntary loss must not look like a voluntary end")
	}
	if st, _ := o.Registry.State(b); st != domain.StateIdle {
		t.Errorf("survivor state = %v, want idle", st)
	}
	if _, ok := o.Registry.Conn(a); ok {
		t.Error("disconnected participant still registered")
	}
}

func TestEndCallThenDisconnect(t *testing.T) {
	o := newTestOrchestrator()
	a, _, _, connB := pair(t, o)

	o.Sessions.EndCall(a)
	o.Disconnect(a)

	if got := connB.noticesOfType(t, "call_ended"); len(got) != 1 {
		t.Errorf("B got %d call_ended, want 1", len(got))
	}
	if got := connB.noticesOfType(t, "peer_disconnected"); len(got) != 0 {
		t.Error("closed session resurfaced as peer_disconnected")
	}
}

// stallingArchive blocks every message append until released.
type stallingArchive struct {
	release chan struct{}
	done    chan struct{}
}

func (s *stallingArchive) SessionStarted(context.Context, domain.SessionID, domain.Profile, domain.Profile, string, string) (core.RecordID, error) {
	return "rec-1", nil
}

func (s *stallingArchive) MessageSent(context.Context, core.RecordID, domain.ParticipantID, string) error {
	<-s.release
	close(s.done)
	return nil
}

func (s *stallingArchive) SessionEnded(context.Context, core.RecordID, time.Time) error {
	return nil
}

// A stalled archive must not delay delivery: the relay returns and the
// counterpart has its message while the append is still in flight.
func TestRelayNotStalledByArchive(t *testing.T) {
	arch := &stallingArchive{release: make(chan struct{}), done: make(chan struct{})}
	o := NewOrchestrator(arch, nil)
	a, _, _, connB := pair(t, o)

	o.Sessions.RelayMessage(a, "hi")

	if got := connB.noticesOfType(t, "message_received"); len(got) != 1 {
		t.Fatalf("B received %v, want the message before the archive commits", got)
	}
	close(arch.release)
	select {
	case <-arch.done:
	case <-time.After(time.Second):
		t.Fatal("archive append never ran")
	}
}

func TestDisconnectIdleParticipant(t *testing.T) {
	o := newTestOrchestrator()
	a, _ := connect(o)

	// Never searched, never paired: teardown must find nothing to do.
	o.Disconnect(a)
	o.Disconnect(a)

	if o.Registry.Count() != 0 {
		t.Error("registry not empty after disconnect")
	}
}
