package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// Role tags a turn as coming from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Location is a bare coordinate snapshot captured at request time.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Citation is one provenance source attached to a grounded reply.
// Presentation-only: stripped before persistence.
type Citation struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

// Payload is the normalized content of an assistant turn. Plan is always
// non-nil; plain-text replies carry a plan holding only the summary.
type Payload struct {
	Plan      *TripPlan  `json:"plan"`
	Location  *Location  `json:"location,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
}

// Turn is one message in the conversation. User turns carry Text; assistant
// turns carry Payload.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	PersonaID string    `json:"personaId"`
	Text      string    `json:"text,omitempty"`
	Payload   *Payload  `json:"payload,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserTurn wraps raw input text as a user turn.
func NewUserTurn(personaID, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		PersonaID: personaID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// NewAssistantTurn wraps a normalized payload as an assistant turn.
func NewAssistantTurn(personaID string, payload Payload) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		PersonaID: personaID,
		Payload:   &payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Greeting builds the normalized first turn of a conversation for a persona.
func Greeting(p persona.Persona) Turn {
	return NewAssistantTurn(p.ID, Payload{Plan: &TripPlan{Summary: p.Greeting}})
}

// Storable returns a copy of the turn reduced to its persistence shape:
// citations dropped, location already bare coordinates.
func (t Turn) Storable() Turn {
	if t.Payload == nil {
		return t
	}
	stored := t
	payload := *t.Payload
	payload.Citations = nil
	stored.Payload = &payload
	return stored
}
