// internal/realtime/broadcaster.go
package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/common/metrics"
)

// Event is one broadcast frame. A nil GroupID means a global event.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	GroupID *uuid.UUID  `json:"group_id,omitempty"`
}

const subscriberBuffer = 16

type subscriber struct {
	ch      chan Event
	groupID *uuid.UUID
}

// Broadcaster is the registry of open client streams. Delivery is best
// effort with no replay: a subscriber that cannot keep up is dropped so one
// slow client never blocks the rest.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a stream. groupID sets the stream's group context;
// nil means the global feed view.
func (b *Broadcaster) Subscribe(groupID *uuid.UUID) (uint64, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return 0, ch
	}

	b.nextID++
	id := b.nextID
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), groupID: groupID}
	b.subs[id] = sub
	metrics.ActiveStreams.Set(float64(len(b.subs)))
	return id, sub.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
		metrics.ActiveStreams.Set(float64(len(b.subs)))
	}
}

// Publish fans the event out. Global events reach every stream; group
// events reach only streams whose context is that group.
func (b *Broadcaster) Publish(eventType string, payload interface{}, groupID *uuid.UUID) {
	event := Event{Type: eventType, Payload: payload, GroupID: groupID}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	metrics.BroadcastEventsTotal.WithLabelValues(eventType).Inc()

	for id, sub := range b.subs {
		if groupID != nil && (sub.groupID == nil || *sub.groupID != *groupID) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	metrics.ActiveStreams.Set(float64(len(b.subs)))
}

// SubscriberCount is used by tests and the health endpoint.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscriber. Further publishes are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	metrics.ActiveStreams.Set(0)
}
