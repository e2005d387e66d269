// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types, matching the channel flags on NotificationPreference.
const (
	NotifyNewFeed     = "newFeed"
	NotifyNewActivity = "newActivity"
	NotifyInvites     = "invites"
)

// Notification statuses.
const (
	NotificationPending   = "pending"
	NotificationSent      = "sent"
	NotificationCancelled = "cancelled"
)

// Notification is owned by its target user and weakly references a task.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	TaskID primitive.ObjectID `bson:"task_id,omitempty" json:"task_id,omitempty"`
	Type   string             `bson:"type" json:"type"`
	Status string             `bson:"status" json:"status"`

	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	SentAt       *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	CancelledAt  *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelReason string     `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
}
