package tracking

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/metrics"
	"coursehub-backend/internal/models"
)

// SessionSink receives every closed session.
type SessionSink interface {
	IngestSession(ctx context.Context, userID string, session models.Session) error
}

// Recorder accepts interactions for the active session of one client.
type Recorder interface {
	Record(event models.InteractionEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(models.InteractionEvent) {}

// Discard drops every interaction.
var Discard Recorder = nopRecorder{}

const (
	defaultFlushTimeout = 10 * time.Second

	// DefaultMaxInteractions and DefaultMaxPageViews bound what one
	// session holds; a closed session is written as a single document.
	DefaultMaxInteractions = 5000
	DefaultMaxPageViews    = 500
)

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithFlushTimeout bounds the hand-off of a closed session to the sink.
func WithFlushTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.flushTimeout = d }
}

// WithSessionLimits caps the interactions and distinct page views kept per
// session. Anything past a cap is dropped and counted.
func WithSessionLimits(interactions, pageViews int) Option {
	return func(t *Tracker) {
		t.maxInteractions = interactions
		t.maxPageViews = pageViews
	}
}

// Tracker is the session state machine of one client. It is either idle
// (no active session) or active. All methods are safe for concurrent use.
type Tracker struct {
	clientID     string
	userID       string
	device       models.DeviceInfo
	sink         SessionSink
	now          func() time.Time
	logger       zerolog.Logger
	flushTimeout time.Duration

	maxInteractions int
	maxPageViews    int

	mu           sync.Mutex
	active       *models.Session
	lastActivity time.Time
	overflowed   bool
}

func NewTracker(clientID, userID string, device models.DeviceInfo, sink SessionSink, opts ...Option) *Tracker {
	t := &Tracker{
		clientID:     clientID,
		userID:       userID,
		device:       device,
		sink:         sink,
		now:          time.Now,
		logger:       zerolog.Nop(),
		flushTimeout: defaultFlushTimeout,

		maxInteractions: DefaultMaxInteractions,
		maxPageViews:    DefaultMaxPageViews,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("client_id", clientID).Str("user_id", userID).Logger()
	return t
}

func (t *Tracker) ClientID() string { return t.clientID }

func (t *Tracker) UserID() string { return t.userID }

// Start opens a session at path. It returns the session id and whether a
// new session was opened; an already active session is left untouched.
func (t *Tracker) Start(ctx context.Context, path string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return t.active.ID, false
	}

	now := t.now()
	s := &models.Session{
		ID:           fmt.Sprintf("%s_%d", t.userID, now.UnixMilli()),
		UserID:       t.userID,
		StartTime:    now,
		PageViews:    []string{},
		Interactions: []models.InteractionEvent{},
		Device:       t.device,
	}
	if path != "" {
		s.PageViews = append(s.PageViews, path)
	}
	s.Interactions = append(s.Interactions, models.InteractionEvent{
		Kind:      models.KindClick,
		Timestamp: now,
		Data:      models.ClickData{Action: "page_view"},
	})

	t.active = s
	t.lastActivity = now
	t.overflowed = false
	metrics.SessionOpened()
	metrics.IncInteraction(string(models.KindClick))

	t.logger.Debug().Str("session_id", s.ID).Str("path", path).Msg("session started")
	return s.ID, true
}

// End closes the active session and hands it to the sink. Sink failures are
// logged; the tracker is idle afterwards either way. It reports whether a
// session was closed.
func (t *Tracker) End(ctx context.Context) bool {
	t.mu.Lock()
	s := t.active
	if s == nil {
		t.mu.Unlock()
		return false
	}
	t.active = nil

	end := t.now()
	if end.Before(s.StartTime) {
		end = s.StartTime
	}
	s.EndTime = &end
	s.Duration = end.Sub(s.StartTime)
	t.mu.Unlock()

	metrics.SessionClosed()

	// A closing connection cancels its context; the flush must still run.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.flushTimeout)
	defer cancel()

	if err := t.sink.IngestSession(flushCtx, t.userID, *s); err != nil {
		t.logger.Error().Err(err).Str("session_id", s.ID).Msg("failed to record session analytics")
		return true
	}

	t.logger.Debug().
		Str("session_id", s.ID).
		Dur("duration", s.Duration).
		Int("interactions", len(s.Interactions)).
		Msg("session ended")
	return true
}

// Record appends an interaction to the active session, stamped with the
// tracker's clock. It is dropped while idle.
func (t *Tracker) Record(event models.InteractionEvent) {
	if err := event.Validate(); err != nil {
		t.logger.Debug().Err(err).Msg("dropping invalid interaction")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return
	}
	event.Timestamp = t.now()
	t.lastActivity = event.Timestamp
	if len(t.active.Interactions) >= t.maxInteractions {
		t.dropLocked("interaction")
		return
	}
	t.active.Interactions = append(t.active.Interactions, event)
	metrics.IncInteraction(string(event.Kind))
}

// dropLocked counts an item dropped from a full session and warns once per
// session. t.mu must be held.
func (t *Tracker) dropLocked(what string) {
	metrics.IncSessionOverflow(what)
	if t.overflowed {
		return
	}
	t.overflowed = true
	t.logger.Warn().
		Str("session_id", t.active.ID).
		Int("max_interactions", t.maxInteractions).
		Int("max_page_views", t.maxPageViews).
		Msgf("session is full; dropping further %ss", what)
}

// RecordPageView adds path to the session's page views unless already
// present.
func (t *Tracker) RecordPageView(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return
	}
	t.lastActivity = t.now()
	if slices.Contains(t.active.PageViews, path) {
		return
	}
	if len(t.active.PageViews) >= t.maxPageViews {
		t.dropLocked("page view")
		return
	}
	t.active.PageViews = append(t.active.PageViews, path)
}

// Touch marks the client as active without recording anything.
func (t *Tracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.lastActivity = t.now()
	}
}

// Active returns a copy of the active session.
func (t *Tracker) Active() (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return models.Session{}, false
	}
	s := *t.active
	s.PageViews = slices.Clone(s.PageViews)
	s.Interactions = slices.Clone(s.Interactions)
	return s, true
}

// idleFor reports how long the active session has seen no activity.
func (t *Tracker) idleFor() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, false
	}
	return t.now().Sub(t.lastActivity), true
}
