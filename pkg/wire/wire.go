// Package wire defines the JSON messages exchanged between clients and the
// room server over the WebSocket gateway.
package wire

// Type tags every message on the wire.
type Type string

// Client → server intents.
const (
	TypeJoinRoom    Type = "joinRoom"
	TypeMakeMove    Type = "makeMove"
	TypeStepHistory Type = "stepHistory"
)

// Server → client events.
const (
	TypePlayerRole    Type = "playerRole"
	TypeSpectatorRole Type = "spectatorRole"
	TypeUpdateBoard   Type = "updateBoard"
	TypeMoveMade      Type = "moveMade"
	TypeInvalidMove   Type = "invalidMove"
)

// History navigation directions accepted by stepHistory.
const (
	DirectionBack    = "back"
	DirectionForward = "forward"
)

// ClientMessage is a single intent sent by a connected client. Only the
// fields matching Type are populated.
type ClientMessage struct {
	Type      Type        `json:"type"`
	Room      string      `json:"room,omitempty"`
	Move      *MoveIntent `json:"move,omitempty"`
	Direction string      `json:"direction,omitempty"`
}

// ServerEvent is a single event delivered to one client or broadcast to a
// whole room.
type ServerEvent struct {
	Type     Type        `json:"type"`
	Role     string      `json:"role,omitempty"`
	Position string      `json:"position,omitempty"`
	Move     *MoveRecord `json:"move,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// MoveIntent is a candidate move as produced by a client. Squares use
// algebraic names ("e2", "e4"); Promotion is a piece letter ("q", "n", ...).
type MoveIntent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI returns the intent in UCI notation ("e2e4", "e7e8q").
func (m MoveIntent) UCI() string {
	return m.From + m.To + m.Promotion
}

// MoveRecord is the normalized description of an applied move as returned
// by the rules engine. It is broadcast verbatim to every room member.
type MoveRecord struct {
	Color     string `json:"color"`
	Piece     string `json:"piece"`
	From      string `json:"from"`
	To        string `json:"to"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	Captured  string `json:"captured,omitempty"`
	Castle    string `json:"castle,omitempty"`
	EnPassant bool   `json:"en_passant,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	Check     bool   `json:"check,omitempty"`
	Checkmate bool   `json:"checkmate,omitempty"`
	Draw      bool   `json:"draw,omitempty"`
}
