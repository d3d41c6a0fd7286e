package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/park285/chess-room-server/internal/obslog"
	"go.uber.org/zap"
)

// ServeWS upgrades the request and runs the client's pumps. The handler
// returns when the connection dies; reads use a background context because
// the connection outlives the request context's cancel.
func (h *Hub) ServeWS(origins []string) http.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:  origins,
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		if err != nil {
			obslog.L().Warn("gateway_accept_error", zap.Error(err))
			return
		}

		c := newClient(uuid.NewString(), &wsConn{c: conn})
		h.Add(c)
		go c.writePump()
		c.readPump(context.Background(), h)
	}
}
