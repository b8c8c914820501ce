package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/yuchialin/concierge/backend/internal/handler/chat"
	"github.com/yuchialin/concierge/backend/internal/handler/events"
	geoHandler "github.com/yuchialin/concierge/backend/internal/handler/geo"
	personaHandler "github.com/yuchialin/concierge/backend/internal/handler/persona"
	statusHandler "github.com/yuchialin/concierge/backend/internal/handler/status"
	streamHandler "github.com/yuchialin/concierge/backend/internal/handler/stream"
	middlewarePkg "github.com/yuchialin/concierge/backend/internal/middleware"
	personaModel "github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	geoService "github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/internal/service/session"
	statusService "github.com/yuchialin/concierge/backend/internal/service/status"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, sessions *session.Manager, orch *orchestrator.Orchestrator, history *convstore.Store, geocoder *geoService.Geocoder, statusSvc *statusService.Service, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		personaHandler.New(personas, sessions, orch).RegisterRoutes(api)
		chatHandler.New(orch, history, sessions).RegisterRoutes(api)
		streamHandler.New(orch).RegisterRoutes(api)
		geoHandler.New(geocoder).RegisterRoutes(api)

		if statusSvc != nil {
			statusHandler.New(statusSvc).RegisterRoutes(api)
		}
		if hub != nil {
			hub.RegisterRoutes(api)
		}
	})

	return r
}
