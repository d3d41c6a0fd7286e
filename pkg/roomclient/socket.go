package roomclient

import (
	"context"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-room-server/pkg/wire"
)

// Socket is one live connection to a room. Dial then Join; Listen delivers
// server events until the connection or context dies.
type Socket struct {
	conn *websocket.Conn
}

// Dial opens a websocket to the server's /ws endpoint.
func Dial(ctx context.Context, wsURL string) (*Socket, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

// Join requests membership in a room. The server answers with a role grant
// and the current board, readable via Listen.
func (s *Socket) Join(ctx context.Context, roomID string) error {
	return wsjson.Write(ctx, s.conn, wire.ClientMessage{Type: wire.TypeJoinRoom, Room: roomID})
}

// Move submits a move intent for the joined room.
func (s *Socket) Move(ctx context.Context, from, to, promotion string) error {
	return wsjson.Write(ctx, s.conn, wire.ClientMessage{
		Type: wire.TypeMakeMove,
		Move: &wire.MoveIntent{From: from, To: to, Promotion: promotion},
	})
}

// Step navigates the room's shared history, direction "back" or "forward".
func (s *Socket) Step(ctx context.Context, direction string) error {
	return wsjson.Write(ctx, s.conn, wire.ClientMessage{Type: wire.TypeStepHistory, Direction: direction})
}

// Listen reads server events until ctx is done or the connection fails,
// invoking fn for each. It returns the read error that ended the loop.
func (s *Socket) Listen(ctx context.Context, fn func(wire.ServerEvent)) error {
	for {
		var ev wire.ServerEvent
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			return err
		}
		fn(ev)
	}
}

func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}
