// Package room owns the per-room game session state machine: seat
// assignment, move relay through the rules engine, authoritative position
// history with shared replay cursor, and rollback recovery after an engine
// fault. One Session exists per room for the process lifetime.
package room

import (
	"context"
	"errors"
	"time"

	"github.com/park285/chess-room-server/pkg/wire"
)

// Role governs move permission inside a room.
type Role string

const (
	RoleWhite     Role = "white"
	RoleBlack     Role = "black"
	RoleSpectator Role = "spectator"
)

// ErrNotYourTurn rejects a move from a connection that does not hold the
// seat whose side is to move. Nothing is mutated.
var ErrNotYourTurn = errors.New("not your turn")

// Engine is the capability surface the session needs from the rules engine.
// The adapter holds the single mutable position; history stays here.
type Engine interface {
	// Apply validates and applies the intent, returning the resulting FEN
	// and a normalized move record. Rejections wrap engine.ErrIllegalMove;
	// unexpected internal failures surface as *engine.Fault.
	Apply(intent wire.MoveIntent) (fen string, rec *wire.MoveRecord, err error)
	// Load replaces the current position with a FEN snapshot.
	Load(fen string) error
	// Turn reports the side to move, "white" or "black".
	Turn() string
	// Position returns the current position as FEN.
	Position() string
	// Outcome reports ("white"|"black"|"draw", method) once the game is
	// decided, empty strings otherwise.
	Outcome() (result, method string)
}

// Notifier delivers session events to one connection or to every member of
// a room. Implementations must not block; slow receivers are the gateway's
// problem.
type Notifier interface {
	Send(connID string, ev wire.ServerEvent)
	Broadcast(roomID string, ev wire.ServerEvent)
}

// Texts resolves player-facing notice strings by catalog key.
type Texts interface {
	Text(key, fallback string) string
}

// Archiver persists a finished game. Implementations are called
// fire-and-forget; failures never affect the session.
type Archiver interface {
	SaveResult(ctx context.Context, res *GameResult) error
}

// GameResult is the final record of a decided game handed to the archiver.
type GameResult struct {
	RoomID    string
	MovesSAN  []string
	MovesUCI  []string
	Result    string // "white" | "black" | "draw"
	Method    string
	StartedAt time.Time
	EndedAt   time.Time
}
