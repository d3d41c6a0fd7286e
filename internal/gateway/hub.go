package gateway

import (
	"sync"

	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/pkg/wire"
	"go.uber.org/zap"
)

// Handler consumes client intents and disconnect notifications. The session
// coordinator implements this.
type Handler interface {
	HandleMessage(connID string, msg wire.ClientMessage)
	HandleDisconnect(connID string)
}

// Hub tracks every connected client and the room each one joined. It
// implements room.Notifier: Send targets one connection, Broadcast fans out
// to every connection in a room.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{} // roomID → set of connIDs

	handler Handler
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// SetHandler wires the intent handler. Must be called before serving
// connections; split from NewHub because the coordinator needs the hub too.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Add registers a connected client.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	obslog.L().Info("gateway_client_connected", zap.String("conn_id", c.ID), zap.Int("total", total))
}

// Remove drops a client from the hub and every room, closes it, and tells
// the handler. Safe to call more than once per client.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, connID)
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	handler := h.handler
	h.mu.Unlock()

	c.close()
	obslog.L().Info("gateway_client_disconnected", zap.String("conn_id", connID))
	if handler != nil {
		handler.HandleDisconnect(connID)
	}
}

// JoinRoom adds the connection to a room's broadcast group. A connection
// that joins another room keeps its old membership only until it
// disconnects, matching the one-room-per-page client model.
func (h *Hub) JoinRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

// Send delivers an event to one connection. Unknown connections are a
// no-op: the client may have disconnected while the session was emitting.
func (h *Hub) Send(connID string, ev wire.ServerEvent) {
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c != nil {
		c.deliver(ev)
	}
}

// Broadcast delivers an event to every connection in the room.
func (h *Hub) Broadcast(roomID string, ev wire.ServerEvent) {
	h.mu.RLock()
	members := h.rooms[roomID]
	targets := make([]*Client, 0, len(members))
	for connID := range members {
		if c := h.clients[connID]; c != nil {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.deliver(ev)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) dispatch(connID string, msg wire.ClientMessage) {
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler != nil {
		handler.HandleMessage(connID, msg)
	}
}
