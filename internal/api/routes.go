package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/campus-calendar-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/holidays?year=&region=
//	GET    /api/v1/holidays/calendar.ics?year=&region=
//	GET    /api/v1/calendar/easter/{year}
//	GET    /api/v1/calendar/eid/{year}
//	POST   /api/v1/recurrences/preview
//	GET    /api/v1/series
//	POST   /api/v1/series                        (API key)
//	GET    /api/v1/series/{id}
//	DELETE /api/v1/series/{id}                   (API key)
//	GET    /api/v1/series/{id}/occurrences?from=&to=
//	GET    /api/v1/series/{id}/calendar.ics
//	POST   /api/v1/series/{id}/regenerate        (API key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/holidays", handlers.GetHolidays)
		r.Get("/holidays/calendar.ics", handlers.GetHolidaysICS)

		r.Get("/calendar/easter/{year}", handlers.GetEaster)
		r.Get("/calendar/eid/{year}", handlers.GetEid)

		r.Post("/recurrences/preview", handlers.PreviewRecurrence)

		r.Route("/series", func(r chi.Router) {
			auth := AuthMiddleware(cfg, logger)

			r.Get("/", handlers.ListSeries)
			r.With(auth).Post("/", handlers.CreateSeries)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetSeries)
				r.With(auth).Delete("/", handlers.DeleteSeries)
				r.Get("/occurrences", handlers.GetSeriesOccurrences)
				r.Get("/calendar.ics", handlers.GetSeriesICS)
				r.With(auth).Post("/regenerate", handlers.RegenerateSeries)
			})
		})
	})

	return r
}
