package status

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	statusService "github.com/yuchialin/concierge/backend/internal/service/status"
	"github.com/yuchialin/concierge/backend/pkg/utils"
)

// Handler serves the ambient status line.
type Handler struct {
	status *statusService.Service
}

// New creates the status handler.
func New(status *statusService.Service) *Handler {
	return &Handler{status: status}
}

// RegisterRoutes mounts the status route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.status.Current(r.Context(), parseLocation(r))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// parseLocation reads the optional lat/lng query parameters captured by the
// client; absent or malformed values fall back to the ambient locator.
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
