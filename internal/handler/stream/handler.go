package stream

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/pkg/utils"
)

// Handler streams submission progress over Server-Sent Events.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// New creates a new stream handler.
func New(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the SSE route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	req := orchestrator.Request{Text: message}
	if loc := parseLocation(r); loc != nil {
		req.Location = loc
	}

	utils.SetupSSEHeaders(w)

	turn, err := h.orch.SubmitWithProgress(r.Context(), req, func(state orchestrator.State) {
		utils.SendSSEEvent(w, flusher, "state", map[string]string{"state": string(state)})
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrSuperseded) {
			utils.SendSSEEvent(w, flusher, "superseded", map[string]string{"error": err.Error()})
			return
		}
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": "submission failed, please retry"})
		return
	}

	utils.SendSSEEvent(w, flusher, "turn", turn)
	utils.SendSSEEvent(w, flusher, "end", map[string]bool{"finished": true})
}

// parseLocation reads optional lat/lng query parameters captured by the
// client.
func parseLocation(r *http.Request) *conv.Location {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil
	}
	return &conv.Location{Latitude: lat, Longitude: lng}
}
