package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-room-server/internal/archive"
	appcfg "github.com/park285/chess-room-server/internal/config"
	"github.com/park285/chess-room-server/internal/coordinator"
	"github.com/park285/chess-room-server/internal/engine"
	"github.com/park285/chess-room-server/internal/feed"
	"github.com/park285/chess-room-server/internal/gateway"
	"github.com/park285/chess-room-server/internal/msgcat"
	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/internal/room"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	texts, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	hub := gateway.NewHub()

	var notifier room.Notifier = hub
	var pub *feed.Publisher
	if cfg.RedisURL != "" {
		pub, err = feed.NewPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("event feed init error: %v", err)
		}
		notifier = feed.NewNotifier(hub, pub)
		obslog.L().Info("event_feed_enabled")
	}

	var archiver room.Archiver
	var repo *archive.Repository
	if cfg.DatabaseURL != "" {
		repo, err = archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		archiver = repo
		obslog.L().Info("game_archive_enabled")
	}

	reg := room.NewRegistry(room.Options{
		NewEngine: func() room.Engine { return engine.New() },
		Notifier:  notifier,
		Texts:     texts,
		Archive:   archiver,
	})

	coord := coordinator.New(reg, hub)
	hub.SetHandler(coord)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg.StartSweeper(rootCtx, cfg.SweepInterval, cfg.RoomIdleTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS(cfg.AllowedOrigins))
	mux.HandleFunc("/api/room-exists/", roomExistsHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "clients": hub.ClientCount(), "rooms": reg.Len()})
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Error("server_error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	obslog.L().Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		obslog.L().Warn("server_shutdown_error", zap.Error(err))
	}
	if pub != nil {
		_ = pub.Close()
	}
	if repo != nil {
		_ = repo.Close()
	}
}

// roomExistsHandler answers page routing probes without creating a session.
func roomExistsHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.TrimPrefix(r.URL.Path, "/api/room-exists/")
		roomID = strings.TrimSpace(strings.Trim(roomID, "/"))
		if roomID == "" {
			http.Error(w, "room id required", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]bool{"exists": reg.Exists(roomID)})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Warn("response_encode_error", zap.Error(err))
	}
}
