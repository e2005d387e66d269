// Package notifications is the notification API: a user's notification
// feed and their delivery preferences.
//
// Preference updates run through the notify gate so that turning Do Not
// Disturb on also cancels everything still waiting to go out.
package notifications

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"github.com/dalemusser/caretrack/internal/app/system/notify"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.uber.org/zap"
)

// Handler holds the notification feature's dependencies.
type Handler struct {
	Notifs *notifstore.Store
	Gate   *notify.Gate
	Log    *zap.Logger
}

func NewHandler(notifs *notifstore.Store, gate *notify.Gate, log *zap.Logger) *Handler {
	return &Handler{Notifs: notifs, Gate: gate, Log: log}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apierrors.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return authz.Principal{}, false
	}
	return actor, true
}

// ServeMine handles GET /notifications. Users only ever see their own
// feed; there is no cross-user lookup.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	items, err := h.Notifs.ListByUser(r.Context(), actor.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	apierrors.JSON(w, http.StatusOK, items)
}

// ServePreferences handles GET /notifications/preferences. Reading the
// preferences also re-applies the Do Not Disturb cancellation pass, so a
// stale pending notification cannot outlive a DND window.
func (h *Handler) ServePreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	pref, err := h.Gate.RefreshSettings(r.Context(), actor.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, pref)
}

// HandleUpdatePreferences handles PATCH /notifications/preferences.
// Absent fields are left untouched; an empty patch is rejected.
func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	var patch notify.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}

	pref, err := h.Gate.UpdatePreferences(r.Context(), actor.ID, patch)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, pref)
}
