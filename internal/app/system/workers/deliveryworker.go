// internal/app/system/workers/deliveryworker.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/mailer"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// deliveryBatchSize caps how many pending notifications one tick drains.
const deliveryBatchSize = 50

// DeliveryWorker emails pending notifications, oldest first. A
// notification cancelled between pickup and send stays cancelled: the
// sent transition only applies while the document is still pending.
type DeliveryWorker struct {
	notifs   *notifstore.Store
	users    *userstore.Store
	tasks    *taskstore.Store
	groups   *groupstore.Store
	mail     *mailer.Mailer
	log      *zap.Logger
	baseURL  string
	siteName string
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewDeliveryWorker creates the worker. interval is how often the pending
// queue is drained (e.g., 30 seconds).
func NewDeliveryWorker(
	notifs *notifstore.Store,
	users *userstore.Store,
	tasks *taskstore.Store,
	groups *groupstore.Store,
	mail *mailer.Mailer,
	logger *zap.Logger,
	baseURL, siteName string,
	interval time.Duration,
) *DeliveryWorker {
	return &DeliveryWorker{
		notifs:   notifs,
		users:    users,
		tasks:    tasks,
		groups:   groups,
		mail:     mail,
		log:      logger,
		baseURL:  baseURL,
		siteName: siteName,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background delivery loop.
func (w *DeliveryWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("notification delivery worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *DeliveryWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("notification delivery worker stopped")
}

func (w *DeliveryWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

func (w *DeliveryWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	batchID := uuid.NewString()

	pending, err := w.notifs.FindPending(ctx, deliveryBatchSize)
	if err != nil {
		w.log.Error("delivery: pending query failed",
			zap.String("batch_id", batchID),
			zap.Error(err))
		return
	}

	sent := 0
	for i := range pending {
		if err := w.deliver(ctx, &pending[i]); err != nil {
			// Left pending; the next tick retries it.
			w.log.Error("delivery failed",
				zap.String("batch_id", batchID),
				zap.String("notification_id", pending[i].ID.Hex()),
				zap.Error(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		w.log.Info("delivered notifications",
			zap.String("batch_id", batchID),
			zap.Int("sent", sent))
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, n *models.Notification) error {
	user, err := w.users.GetByID(ctx, n.UserID)
	if err != nil {
		return err
	}

	data := mailer.NotificationEmailData{
		SiteName:  w.siteName,
		Recipient: user.FullName,
		Headline:  headlineFor(n.Type),
	}
	// Best effort on task and group context; a notification whose task
	// was deleted still goes out with just the headline.
	if !n.TaskID.IsZero() {
		if task, err := w.tasks.GetByID(ctx, n.TaskID); err == nil {
			data.TaskTitle = task.Title
			data.TaskLink = fmt.Sprintf("%s/tasks/%s", w.baseURL, task.ID.Hex())
			if group, err := w.groups.GetByID(ctx, task.GroupID); err == nil {
				data.GroupName = group.Name
			}
		}
	}

	msg := mailer.BuildNotificationEmail(data)
	msg.To = user.Email
	if err := w.mail.Send(msg); err != nil {
		return err
	}

	marked, err := w.notifs.MarkSent(ctx, n.ID)
	if err != nil {
		return err
	}
	if !marked {
		w.log.Warn("notification no longer pending after send",
			zap.String("notification_id", n.ID.Hex()))
	}
	return nil
}

func headlineFor(notifType string) string {
	switch notifType {
	case models.NotifyNewFeed:
		return "There is a new update in your care circle"
	case models.NotifyNewActivity:
		return "A task needs your attention"
	case models.NotifyInvites:
		return "You have been invited to a care circle"
	default:
		return "You have a new notification"
	}
}
