package conversation

import (
	"sync"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// Store holds the single ordered conversation history. Turns are append-only
// between resets; a reset replaces the history with one greeting turn.
type Store struct {
	mu    sync.RWMutex
	turns []conv.Turn
}

// NewStore returns an empty conversation store.
func NewStore() *Store {
	return &Store{turns: make([]conv.Turn, 0, 16)}
}

// Append adds a turn at the end of the history.
func (s *Store) Append(turn conv.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Reset replaces the history with the persona's single greeting turn.
func (s *Store) Reset(p persona.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = []conv.Turn{conv.Greeting(p)}
}

// Restore replaces the history with a previously persisted sequence.
// An empty sequence falls back to the persona's greeting.
func (s *Store) Restore(p persona.Persona, turns []conv.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(turns) == 0 {
		s.turns = []conv.Turn{conv.Greeting(p)}
		return
	}
	s.turns = append([]conv.Turn(nil), turns...)
}

// Snapshot returns a copy of the ordered history.
func (s *Store) Snapshot() []conv.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]conv.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Len reports the number of turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// LastPlanWithEvent returns the most recent assistant plan carrying a
// calendar-ready event, or nil when none exists.
func (s *Store) LastPlanWithEvent() *conv.TripPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		t := s.turns[i]
		if t.Role != conv.RoleAssistant || t.Payload == nil {
			continue
		}
		if t.Payload.Plan.HasEvent() {
			return t.Payload.Plan
		}
	}
	return nil
}

// Storable returns the persistence shape of the history: citations stripped
// from every turn.
func (s *Store) Storable() []conv.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := make([]conv.Turn, len(s.turns))
	for i, t := range s.turns {
		stored[i] = t.Storable()
	}
	return stored
}
