package geo

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	geoService "github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/pkg/utils"
)

// Handler resolves plan suggestion addresses to coordinates.
type Handler struct {
	geocoder *geoService.Geocoder
}

// New creates the geocoding handler.
func New(geocoder *geoService.Geocoder) *Handler {
	return &Handler{geocoder: geocoder}
}

// RegisterRoutes mounts the geocoding route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/geocode", h.handleGeocode)
}

type geocodeRequest struct {
	Points []conv.MapPoint `json:"points"`
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Points) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "points are required")
		return
	}

	results := h.geocoder.GeocodeAll(r.Context(), req.Points)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"markers": results})
}
