package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/chess-room-server/pkg/roomclient"
	"github.com/park285/chess-room-server/pkg/wire"
)

// roomcheck probes a running room server: health, room existence, and
// optionally a short spectator window on one room's websocket.
func main() {
	baseURL := os.Getenv("ROOM_SERVER_URL")
	wsURL := os.Getenv("ROOM_SERVER_WS_URL")
	roomID := strings.TrimSpace(os.Getenv("ROOM_ID"))

	if baseURL == "" {
		log.Fatal("ROOM_SERVER_URL is required")
	}

	client := roomclient.NewClient(baseURL, roomclient.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Println("/healthz ok")

	if roomID == "" {
		log.Println("ROOM_ID not set; skipping room checks")
		return
	}

	exists, err := client.RoomExists(ctx, roomID)
	if err != nil {
		log.Fatalf("room-exists error: %v", err)
	}
	log.Printf("room %s exists=%v", roomID, exists)

	if wsURL == "" {
		log.Println("ROOM_SERVER_WS_URL not set; skipping WS check")
		return
	}

	sock, err := roomclient.Dial(context.Background(), wsURL)
	if err != nil {
		log.Fatalf("WS dial error: %v", err)
	}
	defer sock.Close()

	if err := sock.Join(context.Background(), roomID); err != nil {
		log.Fatalf("WS join error: %v", err)
	}

	// Observe for a short window
	watchCtx, watchCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer watchCancel()
	err = sock.Listen(watchCtx, func(ev wire.ServerEvent) {
		switch ev.Type {
		case wire.TypePlayerRole, wire.TypeSpectatorRole:
			log.Printf("role: %s %s", ev.Role, ev.Message)
		case wire.TypeUpdateBoard:
			log.Printf("board: %s", ev.Position)
		case wire.TypeMoveMade:
			if ev.Move != nil {
				log.Printf("move: %s", ev.Move.UCI)
			}
		default:
			log.Printf("event: %s", ev.Type)
		}
	})
	if watchCtx.Err() == nil && err != nil {
		log.Printf("WS read error: %v", err)
	}
}
