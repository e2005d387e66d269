// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Admin only; the handlers re-check the role themselves.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/task/{id}", h.ServeTaskHistory)
	})

	return r
}
