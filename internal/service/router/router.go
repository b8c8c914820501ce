package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// ErrUnroutable indicates the classifier produced no usable persona id.
// Callers treat it as "keep the active persona".
var ErrUnroutable = errors.New("utterance could not be routed")

// Classifier is the single LLM call shape the router depends on.
type Classifier interface {
	ClassifyPersona(ctx context.Context, utterance string, candidates []persona.Persona) (string, error)
}

// Router decides which persona should handle an utterance. It is stateless
// and never mutates session or history state.
type Router struct {
	classifier Classifier
	personas   persona.Store
}

// New creates a router over the fixed persona catalog.
func New(classifier Classifier, personas persona.Store) *Router {
	return &Router{classifier: classifier, personas: personas}
}

// Route classifies the utterance into exactly one known persona id.
// Any failure, and any value outside the registry, yields ErrUnroutable.
func (r *Router) Route(ctx context.Context, utterance string) (string, error) {
	if strings.TrimSpace(utterance) == "" {
		return "", ErrUnroutable
	}

	id, err := r.classifier.ClassifyPersona(ctx, utterance, r.personas.List())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnroutable, err)
	}

	if _, ok := r.personas.FindByID(id); !ok {
		return "", fmt.Errorf("%w: unknown persona %q", ErrUnroutable, id)
	}
	return id, nil
}
