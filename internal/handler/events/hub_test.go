package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

func TestPersonaSwitchedBroadcast(t *testing.T) {
	hub, conn := dialTestHub(t)

	hub.PersonaSwitched(persona.Seed()[2])

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read err: %v", err)
	}

	var envelope struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if envelope.Event != "persona.switched" {
		t.Fatalf("event = %s", envelope.Event)
	}

	var p persona.Persona
	if err := json.Unmarshal(envelope.Payload, &p); err != nil {
		t.Fatalf("payload err: %v", err)
	}
	if p.ID != persona.Seed()[2].ID {
		t.Fatalf("payload persona = %s", p.ID)
	}
}

func TestBroadcastSurvivesClosedObserver(t *testing.T) {
	hub, conn := dialTestHub(t)
	conn.Close()

	// must not panic or block once the observer is gone
	hub.ConversationUpdated(nil)
	hub.ConversationUpdated(nil)
}
