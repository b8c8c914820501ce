package persona

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuchialin/concierge/backend/internal/model/persona"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/internal/service/session"
	"github.com/yuchialin/concierge/backend/pkg/utils"
)

// Handler exposes the persona catalog and the two switch entry points.
type Handler struct {
	personas persona.Store
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
}

// New creates the persona handler.
func New(personas persona.Store, sessions *session.Manager, orch *orchestrator.Orchestrator) *Handler {
	return &Handler{personas: personas, sessions: sessions, orch: orch}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleList)
	r.Post("/personas/switch", h.handleSwitch)
	r.Post("/personas/handoff", h.handleHandoff)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"personas": h.personas.List(),
		"activeId": h.sessions.Active().ID,
	})
}

func (h *Handler) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PersonaID == "" {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return
	}

	if err := h.orch.SwitchPersona(r.Context(), payload.PersonaID); err != nil {
		if errors.Is(err, orchestrator.ErrUnknownPersona) {
			utils.RespondError(w, http.StatusBadRequest, "persona not found")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "could not switch persona")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"activeId": h.sessions.Active().ID,
	})
}

func (h *Handler) handleHandoff(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, err := h.orch.Handoff(r.Context(), payload.PersonaID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrUnknownPersona) {
			utils.RespondError(w, http.StatusBadRequest, "handoff target not available")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "could not hand off conversation")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"activeId": h.sessions.Active().ID,
		"prompt":   prompt,
	})
}
