package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/chess-room-server/pkg/wire"
)

// fakeConn feeds scripted reads and records writes.
type fakeConn struct {
	mu      sync.Mutex
	written []wire.ServerEvent
	reads   chan wire.ClientMessage
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan wire.ClientMessage, 8)}
}

func (f *fakeConn) ReadMessage(ctx context.Context, msg *wire.ClientMessage) error {
	select {
	case m, ok := <-f.reads:
		if !ok {
			return errors.New("closed")
		}
		*msg = m
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeConn) WriteEvent(_ context.Context, ev wire.ServerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, ev)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []wire.ServerEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wire.ServerEvent(nil), f.written...)
}

type recordingHandler struct {
	mu           sync.Mutex
	messages     []wire.ClientMessage
	disconnected []string
}

func (r *recordingHandler) HandleMessage(_ string, msg wire.ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingHandler) HandleDisconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected = append(r.disconnected, connID)
}

func addClient(h *Hub, id string) (*Client, *fakeConn) {
	conn := newFakeConn()
	c := newClient(id, conn)
	h.Add(c)
	go c.writePump()
	return c, conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestSendTargetsOneConnection(t *testing.T) {
	h := NewHub()
	_, connA := addClient(h, "A")
	_, connB := addClient(h, "B")

	h.Send("A", wire.ServerEvent{Type: wire.TypePlayerRole, Role: "white"})

	waitFor(t, func() bool { return len(connA.events()) == 1 })
	if len(connB.events()) != 0 {
		t.Fatalf("Send must not reach other connections")
	}
	if got := connA.events()[0]; got.Role != "white" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	h := NewHub()
	_, connA := addClient(h, "A")
	_, connB := addClient(h, "B")
	_, connC := addClient(h, "C")

	h.JoinRoom("A", "R1")
	h.JoinRoom("B", "R1")
	h.JoinRoom("C", "R2")

	h.Broadcast("R1", wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: "fen"})

	waitFor(t, func() bool { return len(connA.events()) == 1 && len(connB.events()) == 1 })
	if len(connC.events()) != 0 {
		t.Fatalf("broadcast leaked outside the room")
	}
}

func TestRemoveNotifiesHandlerOnce(t *testing.T) {
	h := NewHub()
	handler := &recordingHandler{}
	h.SetHandler(handler)
	_, conn := addClient(h, "A")
	h.JoinRoom("A", "R1")

	h.Remove("A")
	h.Remove("A")

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.disconnected) != 1 || handler.disconnected[0] != "A" {
		t.Fatalf("expected one disconnect for A, got %v", handler.disconnected)
	}
	if !conn.closed {
		t.Fatalf("removed client's connection must be closed")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("client still registered after removal")
	}
}

func TestReadPumpRoutesIntentsAndCleansUp(t *testing.T) {
	h := NewHub()
	handler := &recordingHandler{}
	h.SetHandler(handler)

	conn := newFakeConn()
	c := newClient("A", conn)
	h.Add(c)

	done := make(chan struct{})
	go func() {
		c.readPump(context.Background(), h)
		close(done)
	}()

	conn.reads <- wire.ClientMessage{Type: wire.TypeJoinRoom, Room: "R1"}
	waitFor(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.messages) == 1
	})

	close(conn.reads)
	<-done

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.disconnected) != 1 {
		t.Fatalf("read failure must trigger disconnect handling, got %v", handler.disconnected)
	}
}
