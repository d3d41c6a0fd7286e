// Package engine adapts the corentings/chess rules library to the narrow
// capability surface the room session needs: apply a move, load a position
// snapshot, report whose turn it is. Chess legality itself is the library's
// business; this package only normalizes its answers.
package engine

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/chess-room-server/pkg/wire"
)

// ErrIllegalMove marks a move the rules library rejected: malformed squares,
// rule violations, moving the wrong piece. No state was mutated.
var ErrIllegalMove = fmt.Errorf("illegal move")

// Fault is an unexpected failure inside the rules library while applying an
// apparently well-formed move. The adapter's internal state must be treated
// as suspect after a Fault; callers reload from authoritative history.
type Fault struct {
	Reason string
}

func (f *Fault) Error() string { return "engine fault: " + f.Reason }

// Adapter holds one mutable chess position.
type Adapter struct {
	game *nchess.Game
}

// New returns an adapter at the standard starting position.
func New() *Adapter {
	return &Adapter{game: nchess.NewGame()}
}

// Position returns the current position as a FEN string.
func (a *Adapter) Position() string { return a.game.FEN() }

// Turn reports the side to move, "white" or "black".
func (a *Adapter) Turn() string {
	if a.game.Position().Turn() == nchess.White {
		return "white"
	}
	return "black"
}

// Load replaces the current position with the given FEN snapshot.
func (a *Adapter) Load(fen string) error {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return fmt.Errorf("parse fen: %w", err)
	}
	a.game = nchess.NewGame(opt)
	return nil
}

// Outcome reports the finished-game result ("white", "black", "draw") and
// the method ("Checkmate", "Stalemate", ...), or empty strings while play
// continues.
func (a *Adapter) Outcome() (result, method string) {
	switch a.game.Outcome() {
	case nchess.WhiteWon:
		result = "white"
	case nchess.BlackWon:
		result = "black"
	case nchess.Draw:
		result = "draw"
	default:
		return "", ""
	}
	return result, a.game.Method().String()
}

// Apply validates the intent against the current position. On success it
// advances the position and returns the resulting FEN plus a normalized
// record. Rejections wrap ErrIllegalMove; panics from the rules library are
// recovered and surfaced as *Fault.
func (a *Adapter) Apply(intent wire.MoveIntent) (fen string, rec *wire.MoveRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			fen, rec = "", nil
			err = &Fault{Reason: fmt.Sprint(r)}
		}
	}()

	uci := strings.ToLower(strings.TrimSpace(intent.UCI()))
	if uci == "" {
		return "", nil, fmt.Errorf("%w: empty intent", ErrIllegalMove)
	}

	pos := a.game.Position()
	mv, derr := nchess.UCINotation{}.Decode(pos, uci)
	if derr != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	color := colorName(pos.Turn())
	moved := pos.Board().Piece(mv.S1())
	captured := pos.Board().Piece(mv.S2())

	if err := a.game.Move(mv, nil); err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	rec = &wire.MoveRecord{
		Color:     color,
		Piece:     pieceName(moved.Type()),
		From:      mv.S1().String(),
		To:        mv.S2().String(),
		SAN:       san,
		UCI:       mv.String(),
		EnPassant: mv.HasTag(nchess.EnPassant),
		Promotion: pieceName(mv.Promo()),
		Check:     mv.HasTag(nchess.Check),
		Checkmate: a.game.Method() == nchess.Checkmate,
		Draw:      a.game.Outcome() == nchess.Draw,
	}
	switch {
	case mv.HasTag(nchess.KingSideCastle):
		rec.Castle = "king"
	case mv.HasTag(nchess.QueenSideCastle):
		rec.Castle = "queen"
	}
	if captured.Type() != nchess.NoPieceType {
		rec.Captured = pieceName(captured.Type())
	} else if rec.EnPassant {
		rec.Captured = pieceName(nchess.Pawn)
	}

	return a.game.FEN(), rec, nil
}

func colorName(c nchess.Color) string {
	if c == nchess.White {
		return "white"
	}
	return "black"
}

func pieceName(t nchess.PieceType) string {
	switch t {
	case nchess.Pawn:
		return "pawn"
	case nchess.Knight:
		return "knight"
	case nchess.Bishop:
		return "bishop"
	case nchess.Rook:
		return "rook"
	case nchess.Queen:
		return "queen"
	case nchess.King:
		return "king"
	default:
		return ""
	}
}
