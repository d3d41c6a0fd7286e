package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-room-server/internal/room"
)

func TestMapResultToPGN(t *testing.T) {
	cases := map[string]string{
		"white":   "1-0",
		"black":   "0-1",
		"draw":    "1/2-1/2",
		"  White": "1-0",
		"":        "*",
		"unknown": "*",
	}
	for in, want := range cases {
		if got := mapResultToPGN(in); got != want {
			t.Errorf("mapResultToPGN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPGNFoolsMate(t *testing.T) {
	res := &room.GameResult{
		RoomID:   "r-42",
		MovesSAN: []string{"f3", "e5", "g4", "Qh4#"},
		Result:   "black",
		Method:   "Checkmate",
		EndedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}

	pgn := buildPGN(res, mapResultToPGN(res.Result))

	for _, want := range []string{
		"[Site \"r-42\"]",
		"[Date \"2026.03.14\"]",
		"[Termination \"checkmate\"]",
		"[Result \"0-1\"]",
		"1. f3 e5 2. g4 Qh4# 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestBuildPGNOddMoveCount(t *testing.T) {
	res := &room.GameResult{
		RoomID:   "r",
		MovesSAN: []string{"e4", "e5", "Nf3"},
		Result:   "draw",
	}
	pgn := buildPGN(res, mapResultToPGN(res.Result))
	if !strings.Contains(pgn, "2. Nf3 1/2-1/2") {
		t.Fatalf("trailing white move mis-numbered:\n%s", pgn)
	}
}

func TestSanitizePGNStripsQuotesAndBackslashes(t *testing.T) {
	if got := sanitizePGN(`ro\om "one"`); got != "ro om 'one'" {
		t.Fatalf("sanitizePGN = %q", got)
	}
}
