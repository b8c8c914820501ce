package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/internal/service/reconcile"
	"github.com/yuchialin/concierge/backend/internal/service/router"
	"github.com/yuchialin/concierge/backend/internal/service/session"
)

// RequestFailureApology is the fixed turn text used when the chat call
// itself fails.
const RequestFailureApology = "抱歉，我現在遇到一點問題，請稍後再試。"

var (
	ErrEmptyUtterance = errors.New("utterance is empty")
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrSuperseded means a persona switch landed while the reply was in
	// flight; the reply was discarded.
	ErrSuperseded = errors.New("reply superseded by persona switch")
)

// State names one stage of the per-submission pipeline.
type State string

const (
	StateComposing   State = "composing"
	StateSubmitted   State = "submitted"
	StateRouting     State = "routing"
	StateGenerating  State = "generating"
	StateReconciling State = "reconciling"
	StatePersisting  State = "persisting"
)

// ProgressFunc receives pipeline state transitions for one submission.
type ProgressFunc func(State)

// Request is one user submission. Location, when set, is the position the
// client captured; otherwise the ambient locator is consulted.
type Request struct {
	Text     string         `json:"text"`
	Location *conv.Location `json:"location,omitempty"`
}

// Orchestrator runs the per-submission control flow: append user turn,
// route, maybe switch persona, contextualize, generate, reconcile, append
// and persist. Submissions are serialized internally so the conversation
// append order never depends on the input surface.
type Orchestrator struct {
	mu        sync.Mutex
	personas  persona.Store
	router    *router.Router
	sessions  *session.Manager
	history   *convstore.Store
	locator   geo.Locator
	persister session.Persister
	notifier  session.Notifier
	timeout   time.Duration
	now       func() time.Time
}

// New wires the orchestrator over its collaborators.
func New(personas persona.Store, r *router.Router, sessions *session.Manager, history *convstore.Store, locator geo.Locator, persister session.Persister, notifier session.Notifier, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		personas:  personas,
		router:    r,
		sessions:  sessions,
		history:   history,
		locator:   locator,
		persister: persister,
		notifier:  notifier,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Submit runs one submission through the full pipeline and returns the
// appended assistant turn.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (conv.Turn, error) {
	return o.SubmitWithProgress(ctx, req, nil)
}

// SubmitWithProgress is Submit with pipeline state callbacks.
func (o *Orchestrator) SubmitWithProgress(ctx context.Context, req Request, progress ProgressFunc) (conv.Turn, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return conv.Turn{}, ErrEmptyUtterance
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	report := func(s State) {
		if progress != nil {
			progress(s)
		}
	}
	// The loading indicator is cleared on every exit path.
	defer report(StateComposing)
	report(StateSubmitted)

	// Step 1: the user sees their own message before any network call.
	o.history.Append(conv.NewUserTurn(o.sessions.Active().ID, text))
	o.notifyConversation()

	// Step 2: route. Failures are swallowed; the active persona answers.
	report(StateRouting)
	if target, err := o.router.Route(ctx, text); err != nil {
		log.Printf("[orchestrator] routing failed, keeping persona %s: %v", o.sessions.Active().ID, err)
	} else if target != o.sessions.Active().ID {
		// Step 3: a failed switch aborts the whole submission.
		if err := o.sessions.Switch(ctx, target); err != nil {
			return conv.Turn{}, fmt.Errorf("submission aborted: %w", err)
		}
	}

	active := o.sessions.Active()
	handle, generation := o.sessions.Handle()

	// Step 4: contextualize with date, time and best-effort location.
	loc := req.Location
	if loc == nil {
		loc = o.locator.Locate(ctx)
	}
	prompt := o.contextualize(text, loc)

	// Step 5: generate. Any failure becomes the fixed error turn.
	report(StateGenerating)
	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	reply, err := handle.Send(genCtx, prompt)
	cancel()

	var turn conv.Turn
	if err != nil {
		log.Printf("[orchestrator] generation failed for persona %s: %v", active.ID, err)
		turn = conv.NewAssistantTurn(active.ID, conv.Payload{
			Plan: &conv.TripPlan{Summary: RequestFailureApology},
		})
	} else {
		// Step 6: reconcile under the contract in effect at send time.
		report(StateReconciling)
		turn = reconcile.Reconcile(active, reply.Text, loc, reply.Citations)
	}

	// A switch that landed while the call was in flight already reset the
	// conversation; a reply from the abandoned persona must not corrupt it.
	if o.sessions.Generation() != generation {
		log.Printf("[orchestrator] discarding reply from superseded session of persona %s", active.ID)
		return conv.Turn{}, ErrSuperseded
	}

	// Step 7: append, persist, notify. Runs for success and failure turns.
	report(StatePersisting)
	o.history.Append(turn)
	o.persist()
	o.notifyConversation()

	return turn, nil
}

// SwitchPersona is the user-initiated switch entry point. It serializes with
// submissions so a switch can never interleave with pipeline steps.
func (o *Orchestrator) SwitchPersona(ctx context.Context, id string) error {
	if _, ok := o.personas.FindByID(id); !ok {
		return ErrUnknownPersona
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions.Switch(ctx, id)
}

// Handoff switches to the target persona and returns the pre-filled
// continuation prompt referencing the previous persona's latest summary.
func (o *Orchestrator) Handoff(ctx context.Context, targetID string) (string, error) {
	if _, ok := o.personas.FindByID(targetID); !ok {
		return "", ErrUnknownPersona
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.sessions.Active()
	if prev.ID == targetID {
		return "", ErrUnknownPersona
	}
	summary := truncateRunes(lastSummary(o.history.Snapshot()), 100)

	if err := o.sessions.Switch(ctx, targetID); err != nil {
		return "", err
	}
	return fmt.Sprintf("接續前一則由「%s」提供的關於「%s...」的討論，請繼續處理。", prev.Name, summary), nil
}

func (o *Orchestrator) contextualize(text string, loc *conv.Location) string {
	now := o.now()
	locationInfo := "無法取得使用者位置。"
	if loc != nil {
		locationInfo = fmt.Sprintf("我的目前GPS位置在：緯度 %v, 經度 %v。", loc.Latitude, loc.Longitude)
	}
	return fmt.Sprintf("今天是 %s，現在時間是 %s。%s 我的請求是：「%s」。請根據這些資訊來規劃。",
		now.Format("2006-01-02"), now.Format("15:04"), locationInfo, text)
}

func (o *Orchestrator) persist() {
	if o.persister == nil {
		return
	}
	if err := o.persister.SaveState(o.history.Storable(), o.sessions.Active().ID); err != nil {
		log.Printf("[orchestrator] persist failed, continuing in memory: %v", err)
	}
}

func (o *Orchestrator) notifyConversation() {
	if o.notifier != nil {
		o.notifier.ConversationUpdated(o.history.Snapshot())
	}
}

func lastSummary(turns []conv.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role == conv.RoleAssistant && t.Payload != nil && t.Payload.Plan != nil {
			return t.Payload.Plan.Summary
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
