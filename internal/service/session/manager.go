package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/llm"
)

// HandleFactory creates a live chat handle bound to one persona.
type HandleFactory interface {
	NewHandle(ctx context.Context, p persona.Persona) (llm.Handle, error)
}

// Persister stores the (conversation, active persona) pair durably.
type Persister interface {
	SaveState(turns []conv.Turn, personaID string) error
}

// Notifier receives state-change events for re-rendering observers.
type Notifier interface {
	PersonaSwitched(p persona.Persona)
	ConversationUpdated(turns []conv.Turn)
}

// Manager owns the active persona and the live chat handle bound to its
// system prompt. The handle never outlives a persona switch.
type Manager struct {
	mu         sync.Mutex
	personas   persona.Store
	factory    HandleFactory
	history    *convstore.Store
	persister  Persister
	notifier   Notifier
	active     persona.Persona
	handle     llm.Handle
	generation uint64
}

// NewManager wires the session manager; call Bootstrap before first use.
func NewManager(personas persona.Store, factory HandleFactory, history *convstore.Store, persister Persister, notifier Notifier) *Manager {
	return &Manager{
		personas:  personas,
		factory:   factory,
		history:   history,
		persister: persister,
		notifier:  notifier,
	}
}

// Bootstrap binds the initial persona and restores a prior conversation.
// An empty history resolves to the persona's single greeting turn.
func (m *Manager) Bootstrap(ctx context.Context, p persona.Persona, turns []conv.Turn) error {
	handle, err := m.factory.NewHandle(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to bind initial persona %s: %w", p.ID, err)
	}

	m.mu.Lock()
	m.active = p
	m.handle = handle
	m.generation++
	m.mu.Unlock()

	m.history.Restore(p, turns)
	return nil
}

// Switch atomically changes the active persona. Same-target and unknown ids
// are no-ops. The new handle is created before any state is touched, so a
// creation failure propagates with the old persona fully intact.
func (m *Manager) Switch(ctx context.Context, newID string) error {
	m.mu.Lock()
	if newID == m.active.ID {
		m.mu.Unlock()
		return nil
	}
	next, ok := m.personas.FindByID(newID)
	if !ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	handle, err := m.factory.NewHandle(ctx, next)
	if err != nil {
		return fmt.Errorf("failed to create handle for persona %s: %w", next.ID, err)
	}

	m.mu.Lock()
	// Another switch may have landed while the handle was being created;
	// same-target calls stay idempotent.
	if next.ID == m.active.ID {
		m.mu.Unlock()
		return nil
	}
	m.active = next
	m.handle = handle
	m.generation++
	m.mu.Unlock()

	m.history.Reset(next)

	if m.persister != nil {
		if err := m.persister.SaveState(m.history.Storable(), next.ID); err != nil {
			log.Printf("[session] failed to persist state after switch: %v", err)
		}
	}
	if m.notifier != nil {
		m.notifier.PersonaSwitched(next)
		m.notifier.ConversationUpdated(m.history.Snapshot())
	}
	return nil
}

// Active returns the current persona.
func (m *Manager) Active() persona.Persona {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Handle returns the live chat handle together with the generation it
// belongs to. Continuations must re-check the generation before applying a
// late reply.
func (m *Manager) Handle() (llm.Handle, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle, m.generation
}

// Generation returns the current switch generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}
