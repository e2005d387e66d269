// Package userinfo reports the current session's identity as JSON.
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/caretrack/internal/app/system/auth"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns the authentication state and identity of the
// caller. Anonymous callers get isAuthenticated=false, not a 401, so
// clients can probe session state without error handling.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
			"id":              "",
			"name":            "",
			"email":           "",
			"role":            "",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"isAuthenticated": true,
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
	})
}
