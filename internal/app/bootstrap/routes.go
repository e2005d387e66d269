// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/caretrack/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/caretrack/internal/app/features/authgoogle"
	groupsfeature "github.com/dalemusser/caretrack/internal/app/features/groups"
	healthfeature "github.com/dalemusser/caretrack/internal/app/features/health"
	loginfeature "github.com/dalemusser/caretrack/internal/app/features/login"
	logoutfeature "github.com/dalemusser/caretrack/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/caretrack/internal/app/features/notifications"
	tasksfeature "github.com/dalemusser/caretrack/internal/app/features/tasks"
	userinfofeature "github.com/dalemusser/caretrack/internal/app/features/userinfo"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	"github.com/dalemusser/caretrack/internal/app/store/oauthstate"
	prefstore "github.com/dalemusser/caretrack/internal/app/store/prefs"
	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/dalemusser/caretrack/internal/app/system/notify"
	"github.com/dalemusser/caretrack/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. Every feature router is mounted
// here with its stores wired in; session state is loaded globally so
// any handler can ask for the current user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	tasks := taskstore.New(db)
	groups := groupstore.New(db, logger)
	users := userstore.New(db)
	notifs := notifstore.New(db)
	prefs := prefstore.New(db)
	states := oauthstate.New(db)

	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Activity: appCfg.AuditLogActivity,
	})
	gate := notify.New(notifs, prefs, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginLimits := ratelimit.LoginLimits{
		IPLimit:     appCfg.LoginIPLimit,
		IPWindow:    appCfg.LoginIPWindow,
		EmailLimit:  appCfg.LoginEmailLimit,
		EmailWindow: appCfg.LoginEmailWindow,
	}
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, loginLimits, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	userinfoHandler := userinfofeature.NewHandler()
	r.Mount("/userinfo", userinfofeature.Routes(userinfoHandler))

	googleHandler := authgooglefeature.NewHandler(users, sessionMgr, auditLog, states,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Care circles
	groupsHandler := groupsfeature.NewHandler(groups, users, gate, auditLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	// Care tasks
	tasksHandler := tasksfeature.NewHandler(tasks, groups, users, gate, auditLog, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	// Notification feed and preferences
	notifHandler := notificationsfeature.NewHandler(notifs, gate, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notifHandler, sessionMgr))

	// Admin audit trail
	auditHandler := auditlogfeature.NewHandler(auditStore, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
