package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(middleware.Recoverer)

	router.Group(func(r chi.Router) {
		r.Get("/api/status", h.getStatus)
		r.Get("/api/statistics", h.getStatistics)
		r.Get("/api/queue", h.getQueue)
		r.Post("/api/sync", h.triggerSync)
		r.Get("/api/conflicts", h.getConflicts)
		r.Post("/api/conflicts/{conflictID}/resolve", h.resolveConflict)
		r.Patch("/api/config", h.updateConfig)
		r.Get("/api/network", h.getNetworkStatus)
		r.Put("/api/network", h.overrideNetworkStatus)
		r.Get("/api/events", h.streamEvents)
		r.Get("/api/version", h.getEngineVersion)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
