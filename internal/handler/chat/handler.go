package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuchialin/concierge/backend/internal/service/calendar"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/internal/service/session"
	"github.com/yuchialin/concierge/backend/pkg/utils"
)

// Handler exposes submission, conversation retrieval and the calendar
// action.
type Handler struct {
	orch     *orchestrator.Orchestrator
	history  *convstore.Store
	sessions *session.Manager
}

// New creates the chat handler.
func New(orch *orchestrator.Orchestrator, history *convstore.Store, sessions *session.Manager) *Handler {
	return &Handler{orch: orch, history: history, sessions: sessions}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleSubmit)
	r.Get("/conversation", h.handleConversation)
	r.Post("/calendar", h.handleCalendar)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.orch.Submit(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyUtterance):
			utils.RespondError(w, http.StatusBadRequest, "text is required")
		case errors.Is(err, orchestrator.ErrSuperseded):
			utils.RespondError(w, http.StatusConflict, "reply superseded by persona switch")
		default:
			utils.RespondError(w, http.StatusBadGateway, "submission failed, please retry")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"activeId": h.sessions.Active().ID,
		"turns":    h.history.Snapshot(),
	})
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	plan := h.history.LastPlanWithEvent()
	if plan == nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "無法產生行事曆連結，因為缺少必要的事件或行程資訊。")
		return
	}

	link, err := calendar.BuildGoogleURL(plan)
	if err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "無法產生行事曆連結，因為缺少必要的事件或行程資訊。")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"url": link})
}
