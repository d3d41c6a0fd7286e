// Package feed mirrors room broadcasts onto Redis pub/sub so external
// consumers (dashboards, relays) can follow live games without holding a
// websocket seat.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-room-server/internal/obslog"
	"github.com/park285/chess-room-server/internal/room"
	"github.com/park285/chess-room-server/pkg/wire"
)

const publishTimeout = 2 * time.Second

// Publisher writes room events to per-room Redis channels.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(redisURL string) (*Publisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for event feed")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Publisher{rdb: rdb}, nil
}

// NewPublisherWithClient wires an existing client, mainly for tests.
func NewPublisherWithClient(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Channel returns the pub/sub channel carrying one room's events.
func Channel(roomID string) string { return "chessroom:events:" + strings.TrimSpace(roomID) }

// Publish serializes the event and fires it at the room's channel. Failures
// are logged and swallowed; the feed is best-effort by contract.
func (p *Publisher) Publish(roomID string, ev wire.ServerEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		obslog.L().Error("feed_marshal_error", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, Channel(roomID), payload).Err(); err != nil {
		obslog.L().Warn("feed_publish_error", zap.String("room_id", roomID), zap.Error(err))
	}
}

// Notifier decorates a room.Notifier: direct sends pass through untouched,
// room broadcasts are additionally mirrored to the Redis feed.
type Notifier struct {
	inner room.Notifier
	pub   *Publisher
}

func NewNotifier(inner room.Notifier, pub *Publisher) *Notifier {
	return &Notifier{inner: inner, pub: pub}
}

func (n *Notifier) Send(connID string, ev wire.ServerEvent) {
	n.inner.Send(connID, ev)
}

func (n *Notifier) Broadcast(roomID string, ev wire.ServerEvent) {
	n.inner.Broadcast(roomID, ev)
	n.pub.Publish(roomID, ev)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
