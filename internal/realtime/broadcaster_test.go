package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestPublishGlobalReachesAllStreams(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	groupID := uuid.New()
	_, global := b.Subscribe(nil)
	_, scoped := b.Subscribe(&groupID)

	b.Publish("new_post", map[string]string{"id": "p1"}, nil)

	require.Len(t, drain(global), 1)
	require.Len(t, drain(scoped), 1)
}

func TestPublishGroupScopedIsolation(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	groupA := uuid.New()
	groupB := uuid.New()
	_, global := b.Subscribe(nil)
	_, subA := b.Subscribe(&groupA)
	_, subB := b.Subscribe(&groupB)

	b.Publish("new_post", map[string]string{"id": "p1"}, &groupA)

	assert.Empty(t, drain(global))
	assert.Empty(t, drain(subB))

	events := drain(subA)
	require.Len(t, events, 1)
	assert.Equal(t, "new_post", events[0].Type)
	require.NotNil(t, events[0].GroupID)
	assert.Equal(t, groupA, *events[0].GroupID)
}

func TestSlowSubscriberIsDroppedWithoutBlockingOthers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	_, slow := b.Subscribe(nil)
	_, healthy := b.Subscribe(nil)

	// Overflow the slow subscriber's buffer while draining the healthy one.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish("new_post", i, nil)
		drain(healthy)
	}

	assert.Equal(t, 1, b.SubscriberCount())

	// The slow channel was closed on removal.
	events := drain(slow)
	assert.LessOrEqual(t, len(events), subscriberBuffer)
	_, open := <-slow
	assert.False(t, open)
}

func TestUnsubscribeRemovesAndCloses(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	id, ch := b.Subscribe(nil)
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(id)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	b.Unsubscribe(id)
}

func TestCloseDropsEverySubscriber(t *testing.T) {
	b := NewBroadcaster()
	_, ch1 := b.Subscribe(nil)
	_, ch2 := b.Subscribe(nil)

	b.Close()
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)

	// Publish after close is a no-op.
	b.Publish("new_post", nil, nil)

	// Subscribe after close hands back a closed channel.
	_, ch3 := b.Subscribe(nil)
	_, open = <-ch3
	assert.False(t, open)
}
