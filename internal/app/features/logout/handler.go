// Package logout clears the session.
package logout

import (
	"net/http"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, audit *auditlog.Logger, log *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, AuditLog: audit, Log: log}
}

// HandleLogout handles POST /logout. Signing out without a session is
// not an error; the response is the same either way.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if actor, ok := authz.UserCtx(r); ok {
		h.AuditLog.Logout(r.Context(), r, actor.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("sign out failed", zap.Error(err))
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
