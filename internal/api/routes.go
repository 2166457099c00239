package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET /health
//	GET /api/v1/events?year=YYYY
//	GET /api/v1/wheel/{year}            JSON, or ?format=text|yaml|ics
//	GET /api/v1/wheel/{year}.ics        iCalendar
//	GET /api/v1/wheel/{year}/{event}
//
// Wheel routes accept ?utc_offset=<hours>.
func SetupRoutes(handlers *Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", handlers.ListEvents)
		r.Get("/wheel/{year}", handlers.GetWheel)
		r.Get("/wheel/{year}/{event}", handlers.GetEvent)
	})

	return r
}
