package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/models"
)

// Registry owns one Tracker per connected client.
type Registry struct {
	sink   SessionSink
	opts   []Option
	logger zerolog.Logger

	mu       sync.RWMutex
	trackers map[string]*Tracker
}

func NewRegistry(sink SessionSink, logger zerolog.Logger, opts ...Option) *Registry {
	return &Registry{
		sink:     sink,
		opts:     append([]Option{WithLogger(logger)}, opts...),
		logger:   logger,
		trackers: make(map[string]*Tracker),
	}
}

// Open registers a new client for userID and returns its idle tracker.
func (r *Registry) Open(userID string, device models.DeviceInfo) *Tracker {
	t := NewTracker(uuid.NewString(), userID, device, r.sink, r.opts...)

	r.mu.Lock()
	r.trackers[t.ClientID()] = t
	r.mu.Unlock()

	r.logger.Debug().Str("client_id", t.ClientID()).Str("user_id", userID).Msg("client connected")
	return t
}

func (r *Registry) Get(clientID string) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[clientID]
	return t, ok
}

// Recorder returns the tracker of clientID when it belongs to userID, and
// Discard otherwise.
func (r *Registry) Recorder(clientID, userID string) Recorder {
	if clientID == "" {
		return Discard
	}
	t, ok := r.Get(clientID)
	if !ok || t.UserID() != userID {
		return Discard
	}
	return t
}

// Close ends the client's session, if any, and forgets the client.
func (r *Registry) Close(ctx context.Context, clientID string) {
	r.mu.Lock()
	t, ok := r.trackers[clientID]
	delete(r.trackers, clientID)
	r.mu.Unlock()

	if ok {
		t.End(ctx)
		r.logger.Debug().Str("client_id", clientID).Msg("client disconnected")
	}
}

// EndUser ends the active sessions of every client of userID. The clients
// stay registered.
func (r *Registry) EndUser(ctx context.Context, userID string) int {
	ended := 0
	for _, t := range r.snapshot() {
		if t.UserID() == userID && t.End(ctx) {
			ended++
		}
	}
	return ended
}

// SweepIdle ends sessions that saw no activity for longer than maxIdle.
func (r *Registry) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	ended := 0
	for _, t := range r.snapshot() {
		idle, active := t.idleFor()
		if !active || idle <= maxIdle {
			continue
		}
		if t.End(ctx) {
			ended++
			r.logger.Info().
				Str("client_id", t.ClientID()).
				Str("user_id", t.UserID()).
				Dur("idle", idle).
				Msg("ended idle session")
		}
	}
	return ended
}

// CloseAll ends every session and empties the registry.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	trackers := r.trackers
	r.trackers = make(map[string]*Tracker)
	r.mu.Unlock()

	for _, t := range trackers {
		t.End(ctx)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

func (r *Registry) snapshot() []*Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		out = append(out, t)
	}
	return out
}
