package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	personaModel "github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/internal/service/llm"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/internal/service/router"
	"github.com/yuchialin/concierge/backend/internal/service/session"
)

type stubHandle struct{}

func (stubHandle) Send(context.Context, string) (llm.Reply, error) {
	return llm.Reply{Text: "ok"}, nil
}

type stubFactory struct{}

func (stubFactory) NewHandle(context.Context, personaModel.Persona) (llm.Handle, error) {
	return stubHandle{}, nil
}

type stubClassifier struct{}

func (stubClassifier) ClassifyPersona(context.Context, string, []personaModel.Persona) (string, error) {
	return personaModel.DefaultID, nil
}

func newTestRouter(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	store := personaModel.NewMemoryStore(personaModel.Seed())
	history := convstore.NewStore()
	sessions := session.NewManager(store, stubFactory{}, history, nil, nil)
	if err := sessions.Bootstrap(context.Background(), store.Default(), nil); err != nil {
		t.Fatalf("Bootstrap err: %v", err)
	}
	orch := orchestrator.New(store, router.New(stubClassifier{}, store), sessions, history, geo.NopLocator{}, nil, nil, time.Second)

	r := chi.NewRouter()
	New(store, sessions, orch).RegisterRoutes(r)
	return r, sessions
}

func TestListPersonas(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Personas []personaModel.Persona `json:"personas"`
		ActiveID string                 `json:"activeId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body.Personas) != 3 {
		t.Fatalf("personas = %d", len(body.Personas))
	}
	if body.ActiveID != personaModel.DefaultID {
		t.Fatalf("activeId = %s", body.ActiveID)
	}
}

func TestSwitchPersona(t *testing.T) {
	r, sessions := newTestRouter(t)

	payload := bytes.NewBufferString(`{"personaId":"AI_ARCHITECT"}`)
	req := httptest.NewRequest(http.MethodPost, "/personas/switch", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if sessions.Active().ID != "AI_ARCHITECT" {
		t.Fatalf("active = %s", sessions.Active().ID)
	}
}

func TestSwitchUnknownPersona(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := bytes.NewBufferString(`{"personaId":"NOT_A_PERSONA"}`)
	req := httptest.NewRequest(http.MethodPost, "/personas/switch", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSwitchRequiresPersonaID(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/personas/switch", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandoffReturnsPromptAndSwitches(t *testing.T) {
	r, sessions := newTestRouter(t)

	payload := bytes.NewBufferString(`{"personaId":"FRAUD_DETECTION_AGENT"}`)
	req := httptest.NewRequest(http.MethodPost, "/personas/handoff", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["prompt"] == "" {
		t.Fatal("missing continuation prompt")
	}
	if sessions.Active().ID != "FRAUD_DETECTION_AGENT" {
		t.Fatalf("active = %s", sessions.Active().ID)
	}
}

func TestHandoffToActivePersonaRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := bytes.NewBufferString(`{"personaId":"PERSONAL_ASSISTANT"}`)
	req := httptest.NewRequest(http.MethodPost, "/personas/handoff", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
