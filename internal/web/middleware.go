package web

import (
	"net/http"

	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/go-chi/chi/v5/middleware"
)

func LoggerMiddleware(logger observability.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			logger.WithField("request_id", reqID).WithField("path", r.URL.Path).Debug(r.Method)
			next.ServeHTTP(w, r)
		})
	}
}
