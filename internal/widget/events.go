package widget

import (
	"sync"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
)

type EventType string

const (
	EventOpen               EventType = "open"
	EventClose              EventType = "close"
	EventMessage            EventType = "message"
	EventMessageRemoved     EventType = "message_removed"
	EventConversationChange EventType = "conversation_change"
	EventConversationUpdate EventType = "conversation_update"
	EventDestroyed          EventType = "destroyed"
)

// Event is published to an instance's subscribers.
type Event struct {
	Type           EventType           `json:"type"`
	InstanceID     string              `json:"instance_id"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Conversation   *model.Conversation `json:"conversation,omitempty"`
	Message        *model.ChatMessage  `json:"message,omitempty"`
	PreviousID     string              `json:"previous_id,omitempty"`
}

const subscriberBuffer = 64

// broker fans events out to subscribers. A subscriber that falls behind drops
// events rather than stalling the instance.
type broker struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	next   uint64
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[uint64]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.next++
	id := b.next
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
