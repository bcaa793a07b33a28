package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runEvents(t *testing.T, events ...Event) State {
	t.Helper()
	s := Idle
	for _, e := range events {
		var err error
		s, err = Next(s, e)
		require.NoError(t, err, "event %s", e)
	}
	return s
}

func TestNext_Paths(t *testing.T) {
	assert.Equal(t, Done, runEvents(t, EventSend, EventStreamOpened, EventStreamCompleted, EventEnriched))
	assert.Equal(t, Done, runEvents(t, EventSend, EventStreamOpened, EventStreamFailed, EventFallbackSucceeded))
	assert.Equal(t, Failed, runEvents(t, EventSend, EventStreamFailed, EventFallbackFailed))
	assert.Equal(t, Failed, runEvents(t, EventSend, EventAborted))
	assert.Equal(t, Idle, runEvents(t, EventSend, EventStreamOpened, EventCancelled))
	assert.Equal(t, Sending, runEvents(t, EventSend, EventStreamOpened, EventStreamCompleted, EventSend))
}

func TestNext_RejectsOverlappingSend(t *testing.T) {
	for _, busy := range []State{Sending, Streaming, Fallback} {
		next, err := Next(busy, EventSend)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, busy, next)
	}
}

func TestNext_InvalidEvents(t *testing.T) {
	_, err := Next(Idle, EventStreamCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Next(Done, EventCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Next(Streaming, EventFallbackSucceeded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "state(42)", State(42).String())
	assert.Equal(t, "fallback_failed", EventFallbackFailed.String())
}
