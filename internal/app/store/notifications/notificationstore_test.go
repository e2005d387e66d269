package notificationstore_test

import (
	"testing"
	"time"

	notificationstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) (*notificationstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return notificationstore.New(db), testutil.NewFixtures(t, db)
}

func TestCreate_StartsPending(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	n, err := store.Create(ctx, userID, primitive.NewObjectID(), models.NotifyNewActivity)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Status != models.NotificationPending {
		t.Errorf("expected pending, got %q", n.Status)
	}
	if n.UserID != userID {
		t.Errorf("user id mismatch")
	}
}

func TestCancelUnsent_OnlyPending(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewActivity, models.NotificationPending)
	fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewFeed, models.NotificationPending)
	sent := fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewActivity, models.NotificationSent)
	otherUser := fixtures.CreateNotification(ctx, primitive.NewObjectID(), taskID, models.NotifyNewActivity, models.NotificationPending)

	cancelled, err := store.CancelUnsent(ctx, userID, "Do Not Disturb enabled")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancelled, got %d", cancelled)
	}

	feed, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, n := range feed {
		switch n.ID {
		case sent.ID:
			if n.Status != models.NotificationSent {
				t.Errorf("sent notification touched: %q", n.Status)
			}
		default:
			if n.Status != models.NotificationCancelled {
				t.Errorf("notification %s not cancelled: %q", n.ID.Hex(), n.Status)
			}
			if n.CancelReason != "Do Not Disturb enabled" {
				t.Errorf("cancel reason %q", n.CancelReason)
			}
			if n.CancelledAt == nil {
				t.Error("cancelled_at not stamped")
			}
		}
	}

	// Re-running the cascade is a no-op.
	again, err := store.CancelUnsent(ctx, userID, "Do Not Disturb enabled")
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if again != 0 {
		t.Errorf("expected 0 on repeat, got %d", again)
	}

	otherFeed, err := store.ListByUser(ctx, otherUser.UserID)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(otherFeed) != 1 || otherFeed[0].Status != models.NotificationPending {
		t.Error("cascade leaked to another user")
	}
}

func TestFindPending_OldestFirstWithLimit(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	first, err := store.Create(ctx, userID, taskID, models.NotifyNewActivity)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Create(ctx, userID, taskID, models.NotifyNewFeed); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := store.FindPending(ctx, 1)
	if err != nil {
		t.Fatalf("find pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1, got %d", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Error("expected oldest notification first")
	}
}

func TestMarkSent_SkipsCancelled(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	pending := fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewActivity, models.NotificationPending)
	cancelled := fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewFeed, models.NotificationCancelled)

	ok, err := store.MarkSent(ctx, pending.ID)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if !ok {
		t.Error("pending notification should be markable")
	}

	ok, err = store.MarkSent(ctx, cancelled.ID)
	if err != nil {
		t.Fatalf("mark cancelled: %v", err)
	}
	if ok {
		t.Error("cancelled notification must stay cancelled")
	}
}

func TestDeleteFinishedBefore_KeepsPending(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewActivity, models.NotificationSent)
	fixtures.CreateNotification(ctx, userID, taskID, models.NotifyNewFeed, models.NotificationCancelled)
	fixtures.CreateNotification(ctx, userID, taskID, models.NotifyInvites, models.NotificationPending)

	deleted, err := store.DeleteFinishedBefore(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	feed, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(feed) != 1 || feed[0].Status != models.NotificationPending {
		t.Error("pending notification should survive cleanup")
	}
}
