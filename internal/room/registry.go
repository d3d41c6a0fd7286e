package room

import (
	"context"
	"sync"
	"time"

	"github.com/park285/chess-room-server/internal/obslog"
	"go.uber.org/zap"
)

// Options bundles the collaborators every new session is wired with.
type Options struct {
	NewEngine func() Engine
	Notifier  Notifier
	Texts     Texts
	Archive   Archiver // optional
}

// Registry maps room identifiers to sessions. Sessions are created lazily on
// first reference and, by default, kept for the process lifetime so players
// can reconnect and spectators keep their view. An optional idle sweep can
// reclaim abandoned rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Session
	opts  Options
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		rooms: make(map[string]*Session),
		opts:  opts,
	}
}

// GetOrCreate returns the session for roomID, creating it seeded with the
// engine's initial position on first reference. Idempotent by roomID.
func (r *Registry) GetOrCreate(roomID string) *Session {
	r.mu.RLock()
	s, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rooms[roomID]; ok {
		return s
	}
	s = newSession(roomID, r.opts.NewEngine(), r.opts.Notifier, r.opts.Texts, r.opts.Archive)
	r.rooms[roomID] = s
	obslog.L().Info("room_created", zap.String("room_id", roomID), zap.Int("total_rooms", len(r.rooms)))
	return s
}

// Get returns the session for roomID, or nil if it was never created.
func (r *Registry) Get(roomID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// Exists reports whether the room has a session without creating one. Used
// by page routing; has no session-mutating effect.
func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Sweep evicts sessions idle for longer than maxIdle and returns how many
// were removed. A maxIdle of zero disables eviction.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.rooms {
		if s.LastActive().Before(cutoff) {
			delete(r.rooms, id)
			removed++
			obslog.L().Info("room_evicted", zap.String("room_id", id))
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	if maxIdle <= 0 || interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Sweep(maxIdle)
			}
		}
	}()
}
