// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/caretrack/internal/app/store/audit"
	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	prefstore "github.com/dalemusser/caretrack/internal/app/store/prefs"
	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/escalation"
	"github.com/dalemusser/caretrack/internal/app/system/jobs"
	"github.com/dalemusser/caretrack/internal/app/system/mailer"
	"github.com/dalemusser/caretrack/internal/app/system/notify"
	"github.com/dalemusser/caretrack/internal/app/system/roles"
	"github.com/dalemusser/caretrack/internal/app/system/workers"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// background holds everything Startup launches so Shutdown can stop it.
var background struct {
	escalation *workers.EscalationWorker
	delivery   *workers.DeliveryWorker
	jobs       *jobs.Runner
}

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It seeds the bootstrap admin and starts the escalation sweeper, the
// notification delivery worker, and the maintenance job runner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	tasks := taskstore.New(db)
	groups := groupstore.New(db, logger)
	users := userstore.New(db)
	notifs := notifstore.New(db)
	prefs := prefstore.New(db)
	auditStore := audit.New(db)

	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Activity: appCfg.AuditLogActivity,
	})
	gate := notify.New(notifs, prefs, logger)

	sweeper := escalation.New(tasks, roles.New(db), gate, auditLog, logger)
	background.escalation = workers.NewEscalationWorker(sweeper, logger, appCfg.EscalationInterval)
	background.escalation.Start()

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	background.delivery = workers.NewDeliveryWorker(notifs, users, tasks, groups, mail, logger,
		appCfg.BaseURL, appCfg.SiteName, appCfg.DeliveryInterval)
	background.delivery.Start()

	background.jobs = jobs.NewRunner(logger,
		jobs.NotificationCleanupJob(notifs, logger, appCfg.NotificationRetention),
		jobs.AuditRetentionJob(auditStore, logger, appCfg.AuditRetention),
	)
	background.jobs.Start()

	return nil
}

// ensureAdmin promotes the configured account to admin, creating it if
// it does not exist. A freshly created account has no password; the
// operator completes setup through Google sign-in or a password reset.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
			Status:   "active",
		})
		if err != nil {
			return err
		}
		logger.Info("bootstrap admin created",
			zap.String("email", email),
			zap.String("user_id", created.ID.Hex()))
		return nil
	}

	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("bootstrap admin promoted",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}

// stopBackground stops the workers started in Startup. Each Stop blocks
// until the worker's loop has exited.
func stopBackground(logger *zap.Logger) {
	start := time.Now()
	if background.jobs != nil {
		background.jobs.Stop()
	}
	if background.delivery != nil {
		background.delivery.Stop()
	}
	if background.escalation != nil {
		background.escalation.Stop()
	}
	logger.Info("background workers stopped", zap.Duration("took", time.Since(start)))
}
