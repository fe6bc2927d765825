// internal/realtime/websocket.go
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler serves the same broadcast stream over a WebSocket for clients
// that cannot hold an SSE connection open.
type WSHandler struct {
	broadcaster *Broadcaster
}

func NewWSHandler(broadcaster *Broadcaster) *WSHandler {
	return &WSHandler{broadcaster: broadcaster}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var groupID *uuid.UUID
	if id, err := uuid.Parse(r.URL.Query().Get("group_id")); err == nil {
		groupID = &id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	id, events := h.broadcaster.Subscribe(groupID)

	go h.readPump(conn, id)
	h.writePump(conn, events)
}

// readPump drains client frames so pong handlers run, and tears the
// subscription down on disconnect.
func (h *WSHandler) readPump(conn *websocket.Conn, id uint64) {
	defer func() {
		h.broadcaster.Unsubscribe(id)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, events <-chan Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case event, open := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
