package message

import (
	"errors"
	"fmt"
)

// State is where the send pipeline of one widget instance currently is.
type State int

const (
	Idle State = iota
	Sending
	Streaming
	Fallback
	Enriching
	Done
	Failed
)

var stateNames = [...]string{"idle", "sending", "streaming", "fallback", "enriching", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Busy reports whether a send owns the stream slot in this state.
func (s State) Busy() bool {
	return s == Sending || s == Streaming || s == Fallback
}

// Event drives a transition.
type Event int

const (
	EventSend Event = iota
	EventStreamOpened
	EventStreamFailed
	EventStreamCompleted
	EventFallbackSucceeded
	EventFallbackFailed
	EventEnriched
	EventAborted // upload or precondition failure after the send started
	EventCancelled
)

var eventNames = [...]string{"send", "stream_opened", "stream_failed", "stream_completed", "fallback_succeeded", "fallback_failed", "enriched", "aborted", "cancelled"}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ErrInvalidTransition is returned by Next for an event the state can't accept.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// Next is the transition function of the send pipeline:
//
//	idle|done|failed|enriching --send--> sending --stream_opened--> streaming
//	sending|streaming --stream_failed--> fallback --fallback_*--> done|failed
//	streaming --stream_completed--> enriching --enriched--> done
//	sending --aborted--> failed; sending|streaming|fallback --cancelled--> idle
func Next(s State, e Event) (State, error) {
	switch e {
	case EventSend:
		if !s.Busy() {
			return Sending, nil
		}
	case EventStreamOpened:
		if s == Sending {
			return Streaming, nil
		}
	case EventStreamFailed:
		if s == Sending || s == Streaming {
			return Fallback, nil
		}
	case EventStreamCompleted:
		if s == Streaming {
			return Enriching, nil
		}
	case EventFallbackSucceeded:
		if s == Fallback {
			return Done, nil
		}
	case EventFallbackFailed:
		if s == Fallback {
			return Failed, nil
		}
	case EventEnriched:
		if s == Enriching {
			return Done, nil
		}
	case EventAborted:
		if s == Sending {
			return Failed, nil
		}
	case EventCancelled:
		if s.Busy() {
			return Idle, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}
