// Package gateway is the connection layer: it upgrades WebSocket requests,
// runs per-client read/write pumps, and routes server events to a single
// connection or to every member of a room.
package gateway

import (
	"context"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-room-server/pkg/wire"
)

// Conn is the minimal connection surface the gateway needs. Satisfied by
// the nhooyr adapter below and by fakes in tests.
type Conn interface {
	ReadMessage(ctx context.Context, msg *wire.ClientMessage) error
	WriteEvent(ctx context.Context, ev wire.ServerEvent) error
	Close() error
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) ReadMessage(ctx context.Context, msg *wire.ClientMessage) error {
	return wsjson.Read(ctx, w.c, msg)
}

func (w *wsConn) WriteEvent(ctx context.Context, ev wire.ServerEvent) error {
	return wsjson.Write(ctx, w.c, ev)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "closing")
}
