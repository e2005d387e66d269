// Package notify gates notification creation on user preferences.
//
// Every notification passes through the Gate before it is written: a user
// with do-not-disturb enabled, or with the matching channel switched off,
// silently gets nothing. Being gated off is a normal outcome, not an
// error.
package notify

import (
	"context"
	"time"

	notifstore "github.com/dalemusser/caretrack/internal/app/store/notifications"
	prefstore "github.com/dalemusser/caretrack/internal/app/store/prefs"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CancelReasonDND is stamped on unsent notifications cancelled by the
// do-not-disturb cascade.
const CancelReasonDND = "Do Not Disturb enabled"

// Gate wraps the notification and preference stores with gating logic.
type Gate struct {
	notifs *notifstore.Store
	prefs  *prefstore.Store
	log    *zap.Logger
}

func New(notifs *notifstore.Store, prefs *prefstore.Store, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{notifs: notifs, prefs: prefs, log: log}
}

// ShouldSend reports whether a notification of notifType may be created for
// the user right now. Do-not-disturb suppresses every type; otherwise the
// matching channel flag decides. Unknown types are never sent.
func (g *Gate) ShouldSend(ctx context.Context, userID primitive.ObjectID, notifType string) (bool, error) {
	pref, err := g.prefs.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if pref.DoNotDisturb {
		return false, nil
	}
	return pref.Channel(notifType), nil
}

// CreateIfAllowed creates a pending notification when the user's
// preferences permit it. A nil notification with a nil error means the
// notification was gated off.
func (g *Gate) CreateIfAllowed(ctx context.Context, userID, taskID primitive.ObjectID, notifType string) (*models.Notification, error) {
	ok, err := g.ShouldSend(ctx, userID, notifType)
	if err != nil {
		return nil, err
	}
	if !ok {
		g.log.Debug("notification gated off",
			zap.String("user_id", userID.Hex()),
			zap.String("type", notifType))
		return nil, nil
	}
	return g.notifs.Create(ctx, userID, taskID, notifType)
}

// Patch is a partial preference update; nil fields are left unchanged.
type Patch struct {
	DoNotDisturb *bool `json:"doNotDisturb,omitempty"`
	NewFeed      *bool `json:"newFeed,omitempty"`
	NewActivity  *bool `json:"newActivity,omitempty"`
	Invites      *bool `json:"invites,omitempty"`
}

func (p Patch) empty() bool {
	return p.DoNotDisturb == nil && p.NewFeed == nil && p.NewActivity == nil && p.Invites == nil
}

// anyChannelEnabled reports whether the patch turns any channel on.
func (p Patch) anyChannelEnabled() bool {
	for _, f := range []*bool{p.NewFeed, p.NewActivity, p.Invites} {
		if f != nil && *f {
			return true
		}
	}
	return false
}

// UpdatePreferences applies a partial update to the user's preferences,
// keeping do-not-disturb and the channel flags consistent:
//
//   - enabling do-not-disturb forces every channel off and cancels the
//     user's unsent notifications;
//   - enabling any channel forces do-not-disturb off.
//
// It returns the saved preference document.
func (g *Gate) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, patch Patch) (models.NotificationPreference, error) {
	if patch.empty() {
		return models.NotificationPreference{}, apperr.Validation("no preference fields to update")
	}

	pref, err := g.prefs.Get(ctx, userID)
	if err != nil {
		return models.NotificationPreference{}, err
	}

	if patch.DoNotDisturb != nil {
		pref.DoNotDisturb = *patch.DoNotDisturb
	}
	if patch.NewFeed != nil {
		pref.NewFeed = *patch.NewFeed
	}
	if patch.NewActivity != nil {
		pref.NewActivity = *patch.NewActivity
	}
	if patch.Invites != nil {
		pref.Invites = *patch.Invites
	}

	// Cascades. An explicit DND enable wins over channel values carried
	// in the same patch.
	if patch.DoNotDisturb != nil && *patch.DoNotDisturb {
		pref.NewFeed = false
		pref.NewActivity = false
		pref.Invites = false
	} else if patch.anyChannelEnabled() {
		pref.DoNotDisturb = false
	}

	pref.UpdatedAt = time.Now().UTC()
	saved, err := g.prefs.Save(ctx, pref)
	if err != nil {
		return models.NotificationPreference{}, err
	}

	if saved.DoNotDisturb {
		n, err := g.notifs.CancelUnsent(ctx, userID, CancelReasonDND)
		if err != nil {
			return models.NotificationPreference{}, err
		}
		if n > 0 {
			g.log.Info("cancelled unsent notifications for do-not-disturb",
				zap.String("user_id", userID.Hex()),
				zap.Int64("cancelled", n))
		}
	}
	return saved, nil
}

// RefreshSettings re-reads the user's stored preference, falling back to
// the defaults when none has been saved yet, and re-applies the
// do-not-disturb cancellation cascade without changing any preference
// value. Safe to call repeatedly.
func (g *Gate) RefreshSettings(ctx context.Context, userID primitive.ObjectID) (models.NotificationPreference, error) {
	pref, err := g.prefs.Get(ctx, userID)
	if err != nil {
		return models.NotificationPreference{}, err
	}
	if pref.DoNotDisturb {
		if _, err := g.notifs.CancelUnsent(ctx, userID, CancelReasonDND); err != nil {
			return models.NotificationPreference{}, err
		}
	}
	return pref, nil
}
