// internal/domain/models/preference.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPreference holds a user's per-channel notification switches.
// One document per user; a user with no document gets DefaultPreference.
type NotificationPreference struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	DoNotDisturb bool               `bson:"do_not_disturb" json:"doNotDisturb"`
	NewFeed      bool               `bson:"new_feed" json:"newFeed"`
	NewActivity  bool               `bson:"new_activity" json:"newActivity"`
	Invites      bool               `bson:"invites" json:"invites"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// DefaultPreference returns the preference applied when a user has never
// saved one: all channels on, do-not-disturb off.
func DefaultPreference(userID primitive.ObjectID) NotificationPreference {
	return NotificationPreference{
		UserID:      userID,
		NewFeed:     true,
		NewActivity: true,
		Invites:     true,
	}
}

// Channel returns the flag for the given notification type. Unknown types
// are off.
func (p *NotificationPreference) Channel(notifType string) bool {
	switch notifType {
	case NotifyNewFeed:
		return p.NewFeed
	case NotifyNewActivity:
		return p.NewActivity
	case NotifyInvites:
		return p.Invites
	default:
		return false
	}
}
