package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/pkg/wire"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Client wraps one connection: a buffered outbound queue drained by the
// write pump, and a read loop feeding intents to the hub's handler.
type Client struct {
	ID   string
	conn Conn
	send chan wire.ServerEvent

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan wire.ServerEvent, sendBuffer),
		done: make(chan struct{}),
	}
}

// deliver queues an event without blocking. A client whose queue is full is
// lagging too far behind live play; the event is dropped for that client
// only.
func (c *Client) deliver(ev wire.ServerEvent) {
	select {
	case c.send <- ev:
	case <-c.done:
	default:
		obslog.L().Warn("gateway_client_lagging",
			zap.String("conn_id", c.ID),
			zap.String("event", string(ev.Type)),
		)
	}
}

// readPump blocks reading intents until the connection fails or closes.
// Each intent is handed to the hub's handler synchronously, which is what
// serializes the intents of a single client.
func (c *Client) readPump(ctx context.Context, h *Hub) {
	defer h.Remove(c.ID)
	for {
		var msg wire.ClientMessage
		if err := c.conn.ReadMessage(ctx, &msg); err != nil {
			return
		}
		h.dispatch(c.ID, msg)
	}
}

// writePump drains the send queue onto the connection.
func (c *Client) writePump() {
	for {
		select {
		case ev := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.WriteEvent(ctx, ev)
			cancel()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
