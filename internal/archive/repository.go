// Package archive persists finished games to Postgres. The room layer calls
// it fire-and-forget once an outcome is decided; nothing in live play waits
// on the database.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/chess-room-server/internal/room"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult inserts one finished game. Implements room.Archiver. A replayed
// room that somehow finishes twice overwrites its earlier row.
func (r *Repository) SaveResult(ctx context.Context, res *room.GameResult) error {
	if r == nil || r.db == nil || res == nil {
		return nil
	}

	pgnResult := mapResultToPGN(res.Result)
	pgn := buildPGN(res, pgnResult)

	movesUCIRaw, _ := json.Marshal(res.MovesUCI)
	movesSANRaw, _ := json.Marshal(res.MovesSAN)
	duration := res.EndedAt.Sub(res.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO chess_room_games (
	    room_id, result, result_method, moves_uci, moves_san, pgn,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9
	  ) ON CONFLICT (room_id, ended_at) DO UPDATE SET
	    result=EXCLUDED.result,
	    result_method=EXCLUDED.result_method,
	    moves_uci=EXCLUDED.moves_uci,
	    moves_san=EXCLUDED.moves_san,
	    pgn=EXCLUDED.pgn,
	    started_at=EXCLUDED.started_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		res.RoomID,
		res.Result, strings.TrimSpace(res.Method),
		string(movesUCIRaw), string(movesSANRaw), pgn,
		res.StartedAt, res.EndedAt, duration,
	)
	return err
}
