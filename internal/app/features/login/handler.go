// Package login handles password sign-in.
//
// Failed attempts are rate limited per IP and per email, and both
// outcomes are audited. The error body never says whether the email or
// the password was wrong.
package login

import (
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/dalemusser/caretrack/internal/app/system/ratelimit"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sm *auth.SessionManager, audit *auditlog.Logger, limits ratelimit.LoginLimits, log *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sm,
		AuditLog:   audit,
		Limiter:    ratelimit.NewLoginLimiter(limits),
		Log:        log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		apierrors.Render(w, h.Log, apperr.Validation("email and password are required"))
		return
	}

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.Log.Warn("login rate limited",
			zap.String("reason", reason),
			zap.String("ip", ratelimit.ClientIP(r)))
		apierrors.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many login attempts, try again later"})
		return
	}

	ctx := r.Context()
	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, email, "no account for email")
			apierrors.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		apierrors.Render(w, h.Log, err)
		return
	}

	if !h.Users.VerifyPassword(user, req.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, email, "wrong password")
		apierrors.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	su := &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("sign in failed", zap.Error(err))
		apierrors.Render(w, h.Log, apperr.Storage("save session", err))
		return
	}

	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, user.ID, "password")

	apierrors.JSON(w, http.StatusOK, loginResponse{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	})
}
