package events

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one progress notification pushed to connected UIs: a
// delivery step completing, a sync pass finishing, a record landing in
// the queue.
type Event struct {
	Name      string      `json:"name"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to every connected websocket client. A slow or
// dead client is dropped rather than allowed to block the rest.
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 64),
	}
}

// Publish queues an event for broadcast. It never blocks the caller;
// if the buffer is full the event is dropped.
func (h *Hub) Publish(event string, payload interface{}) {
	select {
	case h.broadcast <- Event{Name: event, Payload: payload, Timestamp: time.Now()}:
	default:
		log.Printf("[Events] Dropped event %s: broadcast buffer full", event)
	}
}

// Run delivers queued events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.broadcast:
			h.clientsMux.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(ev); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.clientsMux.Unlock()
		}
	}
}

// HandleWS upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Events] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			break
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
