// internal/app/system/jobs/maintenance.go
package jobs

import (
	"context"
	"time"

	"github.com/dalemusser/caretrack/internal/app/store/audit"
	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	"go.uber.org/zap"
)

// NotificationCleanupJob creates a job that removes sent and cancelled
// notifications older than the retention window. Pending notifications
// are never touched.
func NotificationCleanupJob(notifs *notifstore.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "notification-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := notifs.DeleteFinishedBefore(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("removed old notifications",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}

// AuditRetentionJob creates a job that purges audit events older than the
// retention window.
func AuditRetentionJob(auditStore *audit.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := auditStore.PurgeOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("purged old audit events",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
