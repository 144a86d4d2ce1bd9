package web

import (
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *Handlers, logger observability.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware(logger))

	r.Get("/dashboard", h.Dashboard)
	r.Post("/events", h.CreateEvent)
	r.Get("/events/{id}", h.EventDetail)
	r.Post("/events/{id}/register", h.Register)
	r.Get("/registered-events", h.RegisteredEvents)
	r.Post("/events/{id}/comments", h.PostComment)
	r.Post("/events/{id}/feedback", h.SubmitFeedback)
	r.Get("/feedback/pending", h.PendingFeedback)
	r.Get("/healthz", h.Healthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
