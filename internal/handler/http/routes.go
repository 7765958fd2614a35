package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Route("/api/sync", func(r chi.Router) {
		r.Get("/stats", h.getStats)
		r.Post("/stats/reset", h.resetStats)
		r.Post("/now", h.syncNow)
		r.Post("/resume", h.resume)
		r.Get("/queue", h.getQueue)
		r.Get("/dead-letters", h.getDeadLetters)
	})

	router.Route("/api/transfers", func(r chi.Router) {
		r.Post("/", h.initiateTransfer)
		r.Get("/{transferID}", h.getTransfer)
		r.Post("/{transferID}/verify", h.verifyTransfer)
		r.Post("/{transferID}/reject", h.rejectTransfer)
	})

	return router
}
