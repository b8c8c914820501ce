package events

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// Hub broadcasts state-change events to connected websocket observers so
// the frontend can re-render and close any open persona menu. It is the
// session manager's notifier.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// The feed is one-way; reads only detect the client going away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends one event envelope to every connected observer,
// discarding connections that fail to write.
func (h *Hub) Broadcast(event string, payload interface{}) {
	envelope := map[string]interface{}{
		"event":   event,
		"payload": payload,
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(envelope); err != nil {
			log.Printf("[events] dropping observer: %v", err)
			h.drop(conn)
		}
	}
}

// PersonaSwitched implements the session notifier.
func (h *Hub) PersonaSwitched(p persona.Persona) {
	h.Broadcast("persona.switched", p)
}

// ConversationUpdated implements the session notifier.
func (h *Hub) ConversationUpdated(turns []conv.Turn) {
	h.Broadcast("conversation.updated", turns)
}
