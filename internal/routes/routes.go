package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tbrandon/loginhistory/internal/auth"
	"github.com/tbrandon/loginhistory/internal/handlers"
	"github.com/tbrandon/loginhistory/internal/middleware"
	"github.com/tbrandon/loginhistory/internal/models"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	attemptsHandler *handlers.AttemptsHandler,
	historyHandler *handlers.HistoryHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())).
		Post("/auth/login", authHandler.Login)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager))

		// Attempt ingestion for external authentication frontends
		r.With(
			auth.RequireScope(models.ScopeHistoryRecord),
			middleware.RateLimitByIP(middleware.DefaultIngestRateLimit()),
		).Post("/attempts", attemptsHandler.Record)

		// The report in its three renderings
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(models.ScopeHistoryView))

			r.Get("/history", historyHandler.ListHTML)
			r.Get("/history.json", historyHandler.ListJSON)
			r.Get("/history.rss", historyHandler.ListRSS)
			r.Get("/history/{id}", historyHandler.GetByID)

			// Row removal checks the delete scope itself so the
			// configurable viewer-may-delete mode stays possible.
			r.Delete("/history/{id}", historyHandler.Delete)
		})
	})
}
