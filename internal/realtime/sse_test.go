package realtime

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForSubscribers(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.SubscriberCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("never reached %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Closing the broadcaster ends the stream after buffered events are drained,
// which keeps these tests deterministic.
func TestSSEStreamDeliversEvents(t *testing.T) {
	b := NewBroadcaster()
	h := NewSSEHandler(b, time.Hour)

	r := httptest.NewRequest("GET", "/api/events", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, r)
		close(done)
	}()

	waitForSubscribers(t, b, 1)
	b.Publish("new_post", map[string]string{"id": "p1"}, nil)

	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit when the stream closed")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: new_post")
	assert.Contains(t, body, `"id":"p1"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestSSEStreamGroupScope(t *testing.T) {
	b := NewBroadcaster()
	h := NewSSEHandler(b, time.Hour)

	groupID := uuid.New()
	otherGroup := uuid.New()

	r := httptest.NewRequest("GET", "/api/events?group_id="+groupID.String(), nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, r)
		close(done)
	}()

	waitForSubscribers(t, b, 1)
	b.Publish("new_post", map[string]string{"id": "other"}, &otherGroup)
	b.Publish("new_post", map[string]string{"id": "mine"}, &groupID)

	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit when the stream closed")
	}

	body := rec.Body.String()
	assert.Contains(t, body, `"id":"mine"`)
	assert.NotContains(t, body, `"id":"other"`)
	require.Equal(t, 0, b.SubscriberCount())
}
