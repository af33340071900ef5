package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Roulette/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	orch := app.NewOrchestrator(nil, nil)
	ctl := NewWSController(orch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, orch
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v map[string]any) {
	t.Helper()
	if err := ws.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNotice(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("bad notice %q: %v", data, err)
	}
	return m
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPingPong(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dial(t, srv)

	send(t, ws, map[string]any{"type": "ping"})
	if n := readNotice(t, ws); n["type"] != "pong" {
		t.Fatalf("got %v, want pong", n)
	}
}

func TestFindMatchRequiresPeerAddress(t *testing.T) {
	srv, orch := newTestServer(t)
	ws := dial(t, srv)

	send(t, ws, map[string]any{"type": "find_match", "name": "Alice"})
	n := readNotice(t, ws)
	if n["type"] != "error" {
		t.Fatalf("got %v, want error notice", n)
	}
	// Malformed input must never leak into pool or session state.
	if orch.Pool.Len() != 0 {
		t.Error("rejected find_match was enqueued anyway")
	}
	if orch.Sessions.OpenCount() != 0 {
		t.Error("rejected find_match opened a session")
	}
}

func TestMatchRelayAndEndOverWebsocket(t *testing.T) {
	srv, orch := newTestServer(t)
	wsA := dial(t, srv)
	wsB := dial(t, srv)

	send(t, wsA, map[string]any{"type": "find_match", "peer_address": "pA", "name": "Alice"})
	waitFor(t, func() bool { return orch.Pool.Len() == 1 }, "Alice to enter the pool")

	send(t, wsB, map[string]any{"type": "find_match", "peer_address": "pB", "name": "Bob"})

	nA := readNotice(t, wsA)
	if nA["type"] != "match_found" || nA["remote_name"] != "Bob" || nA["is_initiator"] != true {
		t.Fatalf("Alice got %v, want match_found{Bob, initiator}", nA)
	}
	nB := readNotice(t, wsB)
	if nB["type"] != "match_found" || nB["remote_name"] != "Alice" || nB["is_initiator"] != false {
		t.Fatalf("Bob got %v, want match_found{Alice, responder}", nB)
	}

	send(t, wsA, map[string]any{"type": "send_message", "text": "hi"})
	if n := readNotice(t, wsB); n["type"] != "message_received" || n["text"] != "hi" {
		t.Fatalf("Bob got %v, want message_received{hi}", n)
	}

	send(t, wsA, map[string]any{"type": "end_call"})
	if n := readNotice(t, wsB); n["type"] != "call_ended" {
		t.Fatalf("Bob got %v, want call_ended", n)
	}
	waitFor(t, func() bool { return orch.Sessions.OpenCount() == 0 }, "session teardown")
}

func TestTransportLossNotifiesPeer(t *testing.T) {
	srv, orch := newTestServer(t)
	wsA := dial(t, srv)
	wsB := dial(t, srv)

	send(t, wsA, map[string]any{"type": "find_match", "peer_address": "pA"})
	waitFor(t, func() bool { return orch.Pool.Len() == 1 }, "first searcher to enter the pool")
	send(t, wsB, map[string]any{"type": "find_match", "peer_address": "pB"})

	readNotice(t, wsA)
	readNotice(t, wsB)

	_ = wsA.Close()

	if n := readNotice(t, wsB); n["type"] != "peer_disconnected" {
		t.Fatalf("Bob got %v, want peer_disconnected", n)
	}
	waitFor(t, func() bool { return orch.Registry.Count() == 1 }, "A to be unregistered")
}
