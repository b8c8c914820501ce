package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/internal/service/llm"
	"github.com/yuchialin/concierge/backend/internal/service/router"
	"github.com/yuchialin/concierge/backend/internal/service/session"
)

type scriptedHandle struct {
	personaID string
	reply     llm.Reply
	err       error
	prompts   []string
	onSend    func()
}

func (h *scriptedHandle) Send(_ context.Context, text string) (llm.Reply, error) {
	h.prompts = append(h.prompts, text)
	if h.onSend != nil {
		h.onSend()
	}
	return h.reply, h.err
}

type scriptedFactory struct {
	handles map[string]*scriptedHandle
	failFor string
}

func (f *scriptedFactory) NewHandle(_ context.Context, p persona.Persona) (llm.Handle, error) {
	if p.ID == f.failFor {
		return nil, errors.New("quota exhausted")
	}
	if h, ok := f.handles[p.ID]; ok {
		return h, nil
	}
	h := &scriptedHandle{personaID: p.ID, reply: llm.Reply{Text: "ok"}}
	f.handles[p.ID] = h
	return h, nil
}

type scriptedClassifier struct {
	id  string
	err error
}

func (c *scriptedClassifier) ClassifyPersona(context.Context, string, []persona.Persona) (string, error) {
	return c.id, c.err
}

type recordingPersister struct {
	saves int
	err   error
}

func (p *recordingPersister) SaveState([]conv.Turn, string) error {
	p.saves++
	return p.err
}

type fixture struct {
	orch       *Orchestrator
	history    *convstore.Store
	sessions   *session.Manager
	factory    *scriptedFactory
	classifier *scriptedClassifier
	persister  *recordingPersister
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := persona.NewMemoryStore(persona.Seed())
	history := convstore.NewStore()
	factory := &scriptedFactory{handles: map[string]*scriptedHandle{}}
	persister := &recordingPersister{}

	sessions := session.NewManager(store, factory, history, persister, nil)
	if err := sessions.Bootstrap(context.Background(), store.Default(), nil); err != nil {
		t.Fatalf("Bootstrap err: %v", err)
	}

	classifier := &scriptedClassifier{id: persona.DefaultID}
	orch := New(store, router.New(classifier, store), sessions, history, geo.NopLocator{}, persister, nil, 5*time.Second)
	orch.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	}

	return &fixture{
		orch:       orch,
		history:    history,
		sessions:   sessions,
		factory:    factory,
		classifier: classifier,
		persister:  persister,
	}
}

func (f *fixture) activeHandle() *scriptedHandle {
	return f.factory.handles[f.sessions.Active().ID]
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.Submit(context.Background(), Request{Text: "  "}); !errors.Is(err, ErrEmptyUtterance) {
		t.Fatalf("expected ErrEmptyUtterance, got %v", err)
	}
	if f.history.Len() != 1 {
		t.Fatal("rejected submission mutated history")
	}
}

func TestSubmitAppendsUserThenAssistant(t *testing.T) {
	f := newFixture(t)
	f.activeHandle().reply = llm.Reply{Text: `{"summary":"週五台中行程"}`}

	turn, err := f.orch.Submit(context.Background(), Request{Text: "幫我規劃週五去台中"})
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	turns := f.history.Snapshot()
	if len(turns) != 3 {
		t.Fatalf("history len = %d", len(turns))
	}
	if turns[1].Role != conv.RoleUser || turns[1].Text != "幫我規劃週五去台中" {
		t.Fatal("user turn missing or out of order")
	}
	if turns[2].Role != conv.RoleAssistant || turns[2].ID != turn.ID {
		t.Fatal("assistant turn not appended last")
	}
	if turn.Payload.Plan.Summary != "週五台中行程" {
		t.Fatalf("summary = %q", turn.Payload.Plan.Summary)
	}
	if f.persister.saves == 0 {
		t.Fatal("submission did not persist")
	}
}

func TestSubmitContextualizesPrompt(t *testing.T) {
	f := newFixture(t)
	handle := f.activeHandle()
	handle.reply = llm.Reply{Text: `{"summary":"ok"}`}

	loc := &conv.Location{Latitude: 25.03, Longitude: 121.56}
	if _, err := f.orch.Submit(context.Background(), Request{Text: "附近有什麼好吃的", Location: loc}); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if len(handle.prompts) != 1 {
		t.Fatalf("prompts sent = %d", len(handle.prompts))
	}
	prompt := handle.prompts[0]
	for _, want := range []string{"2026-03-10", "14:30", "25.03", "121.56", "附近有什麼好吃的"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q: %s", want, prompt)
		}
	}
}

func TestSubmitWithoutLocationNotesUnavailable(t *testing.T) {
	f := newFixture(t)
	handle := f.activeHandle()
	handle.reply = llm.Reply{Text: `{"summary":"ok"}`}

	if _, err := f.orch.Submit(context.Background(), Request{Text: "規劃行程"}); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if !strings.Contains(handle.prompts[0], "無法取得使用者位置") {
		t.Fatal("prompt should state the location is unavailable")
	}
}

func TestRoutingSwitchesPersonaBeforeGeneration(t *testing.T) {
	f := newFixture(t)
	f.classifier.id = "FRAUD_DETECTION_AGENT"

	turn, err := f.orch.Submit(context.Background(), Request{Text: "這封中獎簡訊是真的嗎？"})
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if f.sessions.Active().ID != "FRAUD_DETECTION_AGENT" {
		t.Fatalf("active = %s", f.sessions.Active().ID)
	}
	if turn.PersonaID != "FRAUD_DETECTION_AGENT" {
		t.Fatalf("turn persona = %s", turn.PersonaID)
	}
	// the fraud handle, not the assistant's, got the prompt
	if len(f.factory.handles["FRAUD_DETECTION_AGENT"].prompts) != 1 {
		t.Fatal("new persona handle did not receive the prompt")
	}
}

func TestRoutingFailureKeepsActivePersona(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = errors.New("classifier offline")
	f.activeHandle().reply = llm.Reply{Text: `{"summary":"ok"}`}

	turn, err := f.orch.Submit(context.Background(), Request{Text: "hello"})
	if err != nil {
		t.Fatalf("routing failure must not fail the submission: %v", err)
	}
	if turn.PersonaID != persona.DefaultID {
		t.Fatalf("turn persona = %s", turn.PersonaID)
	}
}

func TestSwitchFailureAbortsSubmission(t *testing.T) {
	f := newFixture(t)
	f.classifier.id = "FRAUD_DETECTION_AGENT"
	f.factory.failFor = "FRAUD_DETECTION_AGENT"

	_, err := f.orch.Submit(context.Background(), Request{Text: "這封中獎簡訊是真的嗎？"})
	if err == nil {
		t.Fatal("expected the submission to abort")
	}

	if f.sessions.Active().ID != persona.DefaultID {
		t.Fatalf("active = %s after failed switch", f.sessions.Active().ID)
	}
	// greeting + user turn, no assistant turn
	turns := f.history.Snapshot()
	if len(turns) != 2 {
		t.Fatalf("history len = %d", len(turns))
	}
	if turns[1].Role != conv.RoleUser {
		t.Fatalf("last turn role = %s, want user", turns[1].Role)
	}
	// the old persona's handle never saw the prompt
	if len(f.factory.handles[persona.DefaultID].prompts) != 0 {
		t.Fatal("aborted submission still reached the model")
	}
}

func TestGenerationFailureAppendsApologyTurn(t *testing.T) {
	f := newFixture(t)
	f.activeHandle().err = errors.New("api timeout")

	turn, err := f.orch.Submit(context.Background(), Request{Text: "規劃行程"})
	if err != nil {
		t.Fatalf("generation failure must yield an error turn, not an error: %v", err)
	}
	if turn.Payload.Plan.Summary != RequestFailureApology {
		t.Fatalf("summary = %q", turn.Payload.Plan.Summary)
	}

	turns := f.history.Snapshot()
	if turns[len(turns)-1].ID != turn.ID {
		t.Fatal("apology turn not appended")
	}
	if f.persister.saves == 0 {
		t.Fatal("apology turn not persisted")
	}
}

func TestStaleReplyIsDiscardedAfterMidFlightSwitch(t *testing.T) {
	f := newFixture(t)
	handle := f.activeHandle()
	handle.reply = llm.Reply{Text: `{"summary":"遲到的答覆"}`}
	// a switch lands while the model call is in flight
	handle.onSend = func() {
		if err := f.sessions.Switch(context.Background(), "AI_ARCHITECT"); err != nil {
			t.Errorf("switch err: %v", err)
		}
	}

	_, err := f.orch.Submit(context.Background(), Request{Text: "規劃行程"})
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	// history holds only the new persona's greeting
	turns := f.history.Snapshot()
	if len(turns) != 1 || turns[0].PersonaID != "AI_ARCHITECT" {
		t.Fatal("stale reply corrupted the reset conversation")
	}
}

func TestProgressStatesReported(t *testing.T) {
	f := newFixture(t)
	f.activeHandle().reply = llm.Reply{Text: `{"summary":"ok"}`}

	var states []State
	if _, err := f.orch.SubmitWithProgress(context.Background(), Request{Text: "hi"}, func(s State) {
		states = append(states, s)
	}); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	want := []State{StateSubmitted, StateRouting, StateGenerating, StateReconciling, StatePersisting, StateComposing}
	if len(states) != len(want) {
		t.Fatalf("states = %v", states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state %d = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestSwitchPersonaRejectsUnknownID(t *testing.T) {
	f := newFixture(t)
	if err := f.orch.SwitchPersona(context.Background(), "NOT_A_PERSONA"); !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestSwitchPersonaCommits(t *testing.T) {
	f := newFixture(t)
	if err := f.orch.SwitchPersona(context.Background(), "AI_ARCHITECT"); err != nil {
		t.Fatalf("SwitchPersona err: %v", err)
	}
	if f.sessions.Active().ID != "AI_ARCHITECT" {
		t.Fatalf("active = %s", f.sessions.Active().ID)
	}
}

func TestHandoffBuildsContinuationPrompt(t *testing.T) {
	f := newFixture(t)
	f.history.Append(conv.NewAssistantTurn(persona.DefaultID, conv.Payload{
		Plan: &conv.TripPlan{Summary: "已規劃週五台中出差行程，高鐵來回。"},
	}))

	prompt, err := f.orch.Handoff(context.Background(), "AI_ARCHITECT")
	if err != nil {
		t.Fatalf("Handoff err: %v", err)
	}

	if f.sessions.Active().ID != "AI_ARCHITECT" {
		t.Fatal("handoff did not switch persona")
	}
	if !strings.Contains(prompt, "貼身行動助理") || !strings.Contains(prompt, "已規劃週五台中出差行程") {
		t.Fatalf("prompt = %q", prompt)
	}
}

func TestHandoffToActivePersonaFails(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.Handoff(context.Background(), persona.DefaultID); !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestTruncateRunesHandlesMultiByte(t *testing.T) {
	s := strings.Repeat("繁", 150)
	got := truncateRunes(s, 100)
	if len([]rune(got)) != 100 {
		t.Fatalf("rune len = %d", len([]rune(got)))
	}
	if truncateRunes("short", 100) != "short" {
		t.Fatal("short strings must pass through")
	}
}
