package httpapi

import (
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *ratelimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/all", h.ListEvents)
		r.Post("/create", h.CreateEvent)
		r.Post("/create-payment", h.CreatePayment)
		r.Post("/update-attendees/{eventID}", h.UpdateAttendees)
		r.Get("/{eventID}/comments", h.ListComments)
		r.Post("/{eventID}/comments", h.CreateComment)
	})
	r.Route("/api/feedback", func(r chi.Router) {
		r.Post("/submit/{eventID}", h.SubmitFeedback)
		r.Get("/event/{eventID}", h.EventFeedback)
		r.Get("/user/{userID}/event/{eventID}", h.UserEventFeedback)
		r.Get("/pending/{userID}", h.PendingFeedback)
	})
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
