// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create inserts a pending notification for the user.
func (s *Store) Create(ctx context.Context, userID, taskID primitive.ObjectID, notifType string) (*models.Notification, error) {
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		TaskID:    taskID,
		Type:      notifType,
		Status:    models.NotificationPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return nil, apperr.Storage("insert notification", err)
	}
	return &n, nil
}

// ListByUser returns a user's notifications, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Storage("list notifications", err)
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("list notifications", err)
	}
	return out, nil
}

// CancelUnsent transitions every not-yet-sent notification for the user to
// cancelled, stamping cancelled_at and the reason. Sent notifications are
// untouched; already-cancelled ones keep their original stamp, so re-running
// the cascade is idempotent. Returns the number newly cancelled.
func (s *Store) CancelUnsent(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "status": models.NotificationPending},
		bson.M{"$set": bson.M{
			"status":        models.NotificationCancelled,
			"cancelled_at":  time.Now().UTC(),
			"cancel_reason": reason,
		}},
	)
	if err != nil {
		return 0, apperr.Storage("cancel notifications", err)
	}
	return res.ModifiedCount, nil
}

// FindPending returns up to limit pending notifications, oldest first, for
// the delivery worker.
func (s *Store) FindPending(ctx context.Context, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"status": models.NotificationPending}, opts)
	if err != nil {
		return nil, apperr.Storage("find pending notifications", err)
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("find pending notifications", err)
	}
	return out, nil
}

// MarkSent records delivery. The status filter means a notification
// cancelled between selection and delivery stays cancelled.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationPending},
		bson.M{"$set": bson.M{
			"status":  models.NotificationSent,
			"sent_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, apperr.Storage("mark notification sent", err)
	}
	return res.ModifiedCount > 0, nil
}

// DeleteFinishedBefore removes sent and cancelled notifications created
// before the cutoff. Pending notifications are never removed.
func (s *Store) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": []string{models.NotificationSent, models.NotificationCancelled}},
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, apperr.Storage("delete old notifications", err)
	}
	return res.DeletedCount, nil
}
