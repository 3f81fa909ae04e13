package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionGauge(t *testing.T) {
	before := testutil.ToFloat64(sessionsActive)
	closedBefore := testutil.ToFloat64(sessionsClosed)

	SessionOpened()
	SessionOpened()
	SessionClosed()

	assert.Equal(t, before+1, testutil.ToFloat64(sessionsActive))
	assert.Equal(t, closedBefore+1, testutil.ToFloat64(sessionsClosed))
}

func TestTelemetryFailureCounter(t *testing.T) {
	c := telemetryFailures.WithLabelValues("apply_note")
	before := testutil.ToFloat64(c)
	IncTelemetryFailure("apply_note")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestSessionOverflowCounter(t *testing.T) {
	c := sessionOverflow.WithLabelValues("interaction")
	before := testutil.ToFloat64(c)
	IncSessionOverflow("interaction")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
