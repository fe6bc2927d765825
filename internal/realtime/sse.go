// internal/realtime/sse.go
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

// SSEHandler serves the Server-Sent-Events stream. The optional group_id
// query parameter scopes the stream to a group's events.
type SSEHandler struct {
	broadcaster *Broadcaster
	heartbeat   time.Duration
}

func NewSSEHandler(broadcaster *Broadcaster, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SSEHandler{broadcaster: broadcaster, heartbeat: heartbeat}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	var groupID *uuid.UUID
	if id, err := uuid.Parse(r.URL.Query().Get("group_id")); err == nil {
		groupID = &id
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	id, events := h.broadcaster.Subscribe(groupID)
	defer h.broadcaster.Unsubscribe(id)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// Comment frame keeps proxies from closing the idle stream.
			fmt.Fprintf(w, ": heartbeat %d\n\n", time.Now().Unix())
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
