// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMine)
		pr.Get("/preferences", h.ServePreferences)
		pr.Patch("/preferences", h.HandleUpdatePreferences)
	})

	return r
}
