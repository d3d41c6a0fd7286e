// Package coordinator dispatches client intents to room sessions. It binds
// each connection to the room it joined, creates sessions lazily through the
// registry, and ignores messages from connections that never joined a room.
package coordinator

import (
	"strings"
	"sync"

	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/internal/room"
	"github.com/park285/chess-room-server/pkg/wire"
	"go.uber.org/zap"
)

// Gateway is what the coordinator needs from the connection layer: event
// delivery plus room group membership for broadcast addressing.
type Gateway interface {
	room.Notifier
	JoinRoom(connID, roomID string)
}

type Coordinator struct {
	registry *room.Registry
	gateway  Gateway

	mu     sync.Mutex
	joined map[string]string // connID → roomID
}

func New(registry *room.Registry, gateway Gateway) *Coordinator {
	return &Coordinator{
		registry: registry,
		gateway:  gateway,
		joined:   make(map[string]string),
	}
}

// HandleMessage routes one client intent. Implements gateway.Handler.
func (c *Coordinator) HandleMessage(connID string, msg wire.ClientMessage) {
	switch msg.Type {
	case wire.TypeJoinRoom:
		c.handleJoin(connID, strings.TrimSpace(msg.Room))
	case wire.TypeMakeMove:
		if msg.Move == nil {
			return
		}
		if sess := c.sessionFor(connID); sess != nil {
			_ = sess.ApplyMove(connID, *msg.Move)
		}
	case wire.TypeStepHistory:
		if sess := c.sessionFor(connID); sess != nil {
			_ = sess.StepHistory(connID, strings.TrimSpace(msg.Direction))
		}
	default:
		obslog.L().Debug("coordinator_unknown_message",
			zap.String("conn_id", connID),
			zap.String("type", string(msg.Type)),
		)
	}
}

// HandleDisconnect releases the connection's seat and drops its binding.
// Implements gateway.Handler.
func (c *Coordinator) HandleDisconnect(connID string) {
	c.mu.Lock()
	roomID, ok := c.joined[connID]
	delete(c.joined, connID)
	c.mu.Unlock()
	if !ok {
		return
	}
	if sess := c.registry.Get(roomID); sess != nil {
		sess.Disconnect(connID)
	}
}

func (c *Coordinator) handleJoin(connID, roomID string) {
	if roomID == "" {
		return
	}
	c.gateway.JoinRoom(connID, roomID)
	sess := c.registry.GetOrCreate(roomID)

	c.mu.Lock()
	c.joined[connID] = roomID
	c.mu.Unlock()

	sess.Join(connID)
}

// sessionFor resolves the session a connection is bound to. Intents from
// connections that never joined, or whose room was evicted, are dropped.
func (c *Coordinator) sessionFor(connID string) *room.Session {
	c.mu.Lock()
	roomID, ok := c.joined[connID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.registry.Get(roomID)
}
