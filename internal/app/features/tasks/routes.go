// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /tasks requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// CREATE
		pr.Post("/", h.HandleCreate)

		// LISTS
		pr.Get("/mine", h.ServeAssignedToMe)
		pr.Get("/group/{groupID}", h.ServeGroupTasks)

		// VIEW
		pr.Get("/{id}", h.ServeTask)

		// LIFECYCLE
		pr.Post("/{id}/accept", h.HandleAccept)
		pr.Post("/{id}/complete", h.HandleComplete)
		pr.Post("/{id}/status", h.HandleSetStatus)

		// MANAGE
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
