package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/models"
)

func TestRegistry_OpenGetClose(t *testing.T) {
	sink := &stubSink{}
	r := NewRegistry(sink, zerolog.Nop(), WithClock(newManualClock().Now))

	tr := r.Open("user-1", models.DeviceInfo{})
	got, ok := r.Get(tr.ClientID())
	require.True(t, ok)
	assert.Same(t, tr, got)

	tr.Start(context.Background(), "/a")
	r.Close(context.Background(), tr.ClientID())

	_, ok = r.Get(tr.ClientID())
	assert.False(t, ok)
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RecorderChecksOwnership(t *testing.T) {
	r := NewRegistry(&stubSink{}, zerolog.Nop())
	tr := r.Open("user-1", models.DeviceInfo{})

	assert.Same(t, tr, r.Recorder(tr.ClientID(), "user-1"))
	assert.Equal(t, Discard, r.Recorder(tr.ClientID(), "user-2"))
	assert.Equal(t, Discard, r.Recorder("missing", "user-1"))
	assert.Equal(t, Discard, r.Recorder("", "user-1"))
}

func TestRegistry_EndUser(t *testing.T) {
	sink := &stubSink{}
	r := NewRegistry(sink, zerolog.Nop())

	a := r.Open("user-1", models.DeviceInfo{})
	b := r.Open("user-1", models.DeviceInfo{})
	c := r.Open("user-2", models.DeviceInfo{})
	for _, tr := range []*Tracker{a, b, c} {
		tr.Start(context.Background(), "/")
	}

	assert.Equal(t, 2, r.EndUser(context.Background(), "user-1"))
	assert.Equal(t, 2, sink.count())
	_, active := c.Active()
	assert.True(t, active)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_SweepIdle(t *testing.T) {
	clock := newManualClock()
	sink := &stubSink{}
	r := NewRegistry(sink, zerolog.Nop(), WithClock(clock.Now))

	stale := r.Open("user-1", models.DeviceInfo{})
	fresh := r.Open("user-2", models.DeviceInfo{})
	r.Open("user-3", models.DeviceInfo{})

	stale.Start(context.Background(), "/")
	fresh.Start(context.Background(), "/")

	clock.Advance(40 * time.Minute)
	fresh.Touch()

	assert.Equal(t, 1, r.SweepIdle(context.Background(), 30*time.Minute))
	_, staleActive := stale.Active()
	_, freshActive := fresh.Active()
	assert.False(t, staleActive)
	assert.True(t, freshActive)
}

func TestRegistry_CloseAll(t *testing.T) {
	sink := &stubSink{}
	r := NewRegistry(sink, zerolog.Nop())
	for i := 0; i < 3; i++ {
		r.Open("user-1", models.DeviceInfo{}).Start(context.Background(), "/")
	}

	r.CloseAll(context.Background())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, sink.count())
}
