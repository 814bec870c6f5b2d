package routes

import (
	"scf-community/governor/internal/api"
	"scf-community/governor/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, deps *api.Dependencies) {
	r.Route("/api/v1", func(v1 chi.Router) {
		// credential travels in the body
		v1.Post("/admin/roles/grant", handlers.GrantRole())

		v1.Group(func(secret chi.Router) {
			secret.Use(middleware.SharedSecretMiddleware(deps.Authn))
			secret.Post("/admin/tokens", handlers.IssueAdminToken())
		})

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminAuthMiddleware(deps.Authn))
			admin.Get("/votes/active", handlers.ListActiveVotes())
		})
	})
}
