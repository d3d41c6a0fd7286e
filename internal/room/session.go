package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/chess-room-server/internal/engine"
	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/pkg/wire"
	"go.uber.org/zap"
)

// Session is the state machine for one room. Every operation runs under the
// session mutex, so moves, joins, navigation, and disconnects from the same
// room never interleave; different rooms proceed in parallel.
type Session struct {
	ID string

	mu      sync.Mutex
	eng     Engine
	seats   map[Role]string // white/black → connID; absent seat is open
	history []string        // FEN snapshots; history[0] is the start position
	cursor  int             // replay cursor, -1 until first navigation

	movesSAN []string
	movesUCI []string
	finished bool

	createdAt  time.Time
	lastActive time.Time

	notify  Notifier
	texts   Texts
	archive Archiver // optional
}

func newSession(id string, eng Engine, notify Notifier, texts Texts, archive Archiver) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		eng:        eng,
		seats:      make(map[Role]string, 2),
		history:    []string{eng.Position()},
		cursor:     -1,
		createdAt:  now,
		lastActive: now,
		notify:     notify,
		texts:      texts,
		archive:    archive,
	}
}

// Join grants the requesting connection a role: white if the seat is open,
// else black, else spectator. The granted role and the live position go to
// the requester only. Assignment never fails.
func (s *Session) Join(connID string) Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	role := RoleSpectator
	switch {
	case s.seats[RoleWhite] == "":
		s.seats[RoleWhite] = connID
		role = RoleWhite
	case s.seats[RoleBlack] == "":
		s.seats[RoleBlack] = connID
		role = RoleBlack
	}

	s.notify.Send(connID, wire.ServerEvent{Type: wire.TypePlayerRole, Role: string(role)})
	if role == RoleSpectator {
		s.notify.Send(connID, wire.ServerEvent{
			Type:    wire.TypeSpectatorRole,
			Message: s.texts.Text("role.spectator_hint", "You are watching as a spectator."),
		})
	}
	s.notify.Send(connID, wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: s.livePosition()})

	obslog.L().Info("room_join",
		zap.String("room_id", s.ID),
		zap.String("conn_id", connID),
		zap.String("role", string(role)),
	)
	return role
}

// ApplyMove runs the full move pipeline: turn check, engine application,
// history append, room broadcast. Rejections notify the requester only and
// leave all state untouched. An engine fault triggers the self-healing
// rollback: the engine is reloaded from the last recorded position and the
// restored board is broadcast to the whole room.
func (s *Session) ApplyMove(connID string, intent wire.MoveIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	turn := Role(s.eng.Turn())
	if s.seats[turn] != connID || connID == "" {
		s.notify.Send(connID, wire.ServerEvent{
			Type:    wire.TypeInvalidMove,
			Message: s.texts.Text("notice.not_your_turn", "It's not your turn!"),
		})
		return ErrNotYourTurn
	}

	fen, rec, err := s.eng.Apply(intent)
	if err != nil {
		var fault *engine.Fault
		if errors.As(err, &fault) {
			s.recoverFromFault(connID, fault)
			return err
		}
		s.notify.Send(connID, wire.ServerEvent{
			Type:    wire.TypeInvalidMove,
			Message: s.texts.Text("notice.invalid_move", "Invalid move!"),
		})
		return err
	}

	s.history = append(s.history, fen)
	s.movesSAN = append(s.movesSAN, rec.SAN)
	s.movesUCI = append(s.movesUCI, rec.UCI)

	s.notify.Broadcast(s.ID, wire.ServerEvent{Type: wire.TypeMoveMade, Move: rec})
	s.notify.Broadcast(s.ID, wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: fen})

	obslog.L().Info("room_move",
		zap.String("room_id", s.ID),
		zap.String("conn_id", connID),
		zap.String("uci", rec.UCI),
		zap.Int("history_len", len(s.history)),
	)

	if result, method := s.eng.Outcome(); result != "" && !s.finished {
		s.finished = true
		s.archiveResult(result, method)
	}
	return nil
}

// StepHistory moves the room's shared replay cursor and broadcasts the
// position it lands on. Out-of-range steps clamp silently; the cursor is
// initialized to the live position on first use. Navigation moves the board
// for every room member — the cursor is deliberately shared, not per-viewer.
func (s *Session) StepHistory(connID, direction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.cursor < 0 {
		s.cursor = len(s.history) - 1
	}
	switch direction {
	case wire.DirectionBack:
		if s.cursor > 0 {
			s.cursor--
		}
	case wire.DirectionForward:
		if s.cursor < len(s.history)-1 {
			s.cursor++
		}
	}

	fen := s.history[s.cursor]
	if err := s.eng.Load(fen); err != nil {
		obslog.L().Error("room_history_load_error",
			zap.String("room_id", s.ID),
			zap.Int("cursor", s.cursor),
			zap.Error(err),
		)
		return err
	}
	s.notify.Broadcast(s.ID, wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: fen})

	obslog.L().Debug("room_history_step",
		zap.String("room_id", s.ID),
		zap.String("conn_id", connID),
		zap.String("direction", direction),
		zap.Int("cursor", s.cursor),
	)
	return nil
}

// Disconnect releases any seat held by the connection so a later joiner can
// claim it. History, the other seat, and the position are untouched. Safe to
// call for connections that never held a seat.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range []Role{RoleWhite, RoleBlack} {
		if s.seats[role] == connID {
			delete(s.seats, role)
			obslog.L().Info("room_seat_released",
				zap.String("room_id", s.ID),
				zap.String("conn_id", connID),
				zap.String("role", string(role)),
			)
		}
	}
}

// recoverFromFault reloads the engine from the last known-good history entry
// and broadcasts the restored position, guarding against the engine's state
// diverging from authoritative history. Caller holds the mutex.
func (s *Session) recoverFromFault(connID string, fault *engine.Fault) {
	s.notify.Send(connID, wire.ServerEvent{
		Type:    wire.TypeInvalidMove,
		Message: s.texts.Text("notice.malformed_move", "You are playing an invalid move or dragging not properly."),
	})

	last := s.history[len(s.history)-1]
	if err := s.eng.Load(last); err != nil {
		obslog.L().Error("room_rollback_load_error", zap.String("room_id", s.ID), zap.Error(err))
	}
	s.notify.Broadcast(s.ID, wire.ServerEvent{Type: wire.TypeUpdateBoard, Position: last})

	obslog.L().Warn("room_rollback",
		zap.String("room_id", s.ID),
		zap.String("conn_id", connID),
		zap.String("reason", fault.Reason),
	)
}

// archiveResult hands the finished game to the archiver without blocking the
// room. Caller holds the mutex.
func (s *Session) archiveResult(result, method string) {
	obslog.L().Info("room_game_over",
		zap.String("room_id", s.ID),
		zap.String("result", result),
		zap.String("method", method),
	)
	if s.archive == nil {
		return
	}
	res := &GameResult{
		RoomID:    s.ID,
		MovesSAN:  append([]string(nil), s.movesSAN...),
		MovesUCI:  append([]string(nil), s.movesUCI...),
		Result:    result,
		Method:    method,
		StartedAt: s.createdAt,
		EndedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.SaveResult(ctx, res); err != nil {
			obslog.L().Error("room_archive_error", zap.String("room_id", res.RoomID), zap.Error(err))
		}
	}()
}

func (s *Session) livePosition() string { return s.history[len(s.history)-1] }

func (s *Session) touch() { s.lastActive = time.Now() }

// Seat returns the connection holding the given role, or "" for an open seat.
func (s *Session) Seat(role Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats[role]
}

// History returns a copy of the recorded positions.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Cursor returns the replay cursor, -1 if navigation was never used.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LivePosition returns the most recently recorded position.
func (s *Session) LivePosition() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.livePosition()
}

// LastActive reports when the session last processed an operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
