package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/chess-room-server/pkg/wire"
)

func setupFeed(t *testing.T) (*Publisher, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = rdb.Close()
		mr.Close()
	}
	return NewPublisherWithClient(rdb), redis.NewClient(&redis.Options{Addr: mr.Addr()}), cleanup
}

func TestPublishReachesRoomChannel(t *testing.T) {
	pub, sub, cleanup := setupFeed(t)
	defer cleanup()
	defer sub.Close()

	ps := sub.Subscribe(context.Background(), Channel("R1"))
	defer ps.Close()
	if _, err := ps.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub.Publish("R1", wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: "fen-after-e4"})

	select {
	case msg := <-ps.Channel():
		var ev wire.ServerEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if ev.Type != wire.TypeUpdateBoard || ev.Position != "fen-after-e4" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message on room channel")
	}
}

func TestChannelIsolationBetweenRooms(t *testing.T) {
	pub, sub, cleanup := setupFeed(t)
	defer cleanup()
	defer sub.Close()

	ps := sub.Subscribe(context.Background(), Channel("R2"))
	defer ps.Close()
	if _, err := ps.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub.Publish("R1", wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: "fen"})

	select {
	case msg := <-ps.Channel():
		t.Fatalf("event leaked across rooms: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

type countingNotifier struct {
	sends, bcasts int
}

func (c *countingNotifier) Send(string, wire.ServerEvent)      { c.sends++ }
func (c *countingNotifier) Broadcast(string, wire.ServerEvent) { c.bcasts++ }

func TestNotifierMirrorsBroadcastsOnly(t *testing.T) {
	pub, sub, cleanup := setupFeed(t)
	defer cleanup()
	defer sub.Close()

	ps := sub.Subscribe(context.Background(), Channel("R1"))
	defer ps.Close()
	if _, err := ps.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	inner := &countingNotifier{}
	n := NewNotifier(inner, pub)

	n.Send("conn-1", wire.ServerEvent{Type: wire.TypePlayerRole, Role: "white"})
	n.Broadcast("R1", wire.ServerEvent{Type: wire.TypeMoveMade})

	if inner.sends != 1 || inner.bcasts != 1 {
		t.Fatalf("inner notifier not forwarded to: %+v", inner)
	}

	select {
	case msg := <-ps.Channel():
		var ev wire.ServerEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if ev.Type != wire.TypeMoveMade {
			t.Fatalf("expected the broadcast on the feed, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast not mirrored to the feed")
	}

	select {
	case msg := <-ps.Channel():
		t.Fatalf("direct send must not hit the feed: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6379/2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseRedisURL("http://nope"); err == nil {
		t.Fatalf("non-redis scheme must be rejected")
	}
}
