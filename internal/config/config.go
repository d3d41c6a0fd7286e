package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig carries every runtime setting of the room server. All values
// come from the environment; optional integrations (Redis feed, Postgres
// archive) stay disabled when their URL is empty.
type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	// RoomIdleTTL of zero keeps rooms for the process lifetime.
	RoomIdleTTL   time.Duration
	SweepInterval time.Duration

	MsgcatDir string

	AllowedOrigins []string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:    ":3000",
		SweepInterval: time.Minute,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	if v := strings.TrimSpace(os.Getenv("ROOM_IDLE_TTL")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("ROOM_IDLE_TTL must be a non-negative number of seconds, got %q", v)
		}
		cfg.RoomIdleTTL = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_SWEEP_INTERVAL")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("ROOM_SWEEP_INTERVAL must be a positive number of seconds, got %q", v)
		}
		cfg.SweepInterval = time.Duration(n) * time.Second
	}

	if v := strings.TrimSpace(os.Getenv("WS_ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	return cfg, nil
}
