package router

import (
	"context"
	"errors"
	"testing"

	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

type fakeClassifier struct {
	id  string
	err error
}

func (f fakeClassifier) ClassifyPersona(context.Context, string, []persona.Persona) (string, error) {
	return f.id, f.err
}

func TestRouteReturnsKnownPersona(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	r := New(fakeClassifier{id: "FRAUD_DETECTION_AGENT"}, store)

	id, err := r.Route(context.Background(), "這封簡訊是不是詐騙？")
	if err != nil {
		t.Fatalf("Route err: %v", err)
	}
	if id != "FRAUD_DETECTION_AGENT" {
		t.Fatalf("id = %s", id)
	}
}

func TestRouteRejectsUnknownValue(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	r := New(fakeClassifier{id: "SOMETHING_ELSE"}, store)

	if _, err := r.Route(context.Background(), "hello"); !errors.Is(err, ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable, got %v", err)
	}
}

func TestRouteWrapsClassifierFailure(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	r := New(fakeClassifier{err: errors.New("api quota exceeded")}, store)

	if _, err := r.Route(context.Background(), "hello"); !errors.Is(err, ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable, got %v", err)
	}
}

func TestRouteRejectsEmptyUtterance(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	r := New(fakeClassifier{id: persona.DefaultID}, store)

	if _, err := r.Route(context.Background(), "   "); !errors.Is(err, ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable, got %v", err)
	}
}
