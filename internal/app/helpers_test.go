package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
)

// fakeConn records every frame a participant would have received.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// notices decodes the recorded frames into generic maps.
func (c *fakeConn) notices(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("undecodable notice %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

// noticesOfType filters the recorded notices by wire type.
func (c *fakeConn) noticesOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range c.notices(t) {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(nil, nil)
}

func connect(o *Orchestrator) (domain.ParticipantID, *fakeConn) {
	conn := &fakeConn{}
	id := o.Connect(conn, "", nil)
	return id, conn
}

func profileFor(name, peer string) domain.Profile {
	return domain.Profile{PeerAddress: peer, Name: name, Gender: "x", Age: "20"}
}
