// internal/app/store/prefs/prefstore.go
package prefstore

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
	return &Store{c: db.Collection("notification_preferences")}
}

// Get loads a user's notification preferences, falling back to the default
// preference object (all channels on, DND off) when none has been saved.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID) (models.NotificationPreference, error) {
	var p models.NotificationPreference
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.DefaultPreference(userID), nil
	}
	if err != nil {
		return models.NotificationPreference{}, apperr.Storage("load preferences", err)
	}
	return p, nil
}

// Save upserts the full preference document for the user.
func (s *Store) Save(ctx context.Context, p models.NotificationPreference) (models.NotificationPreference, error) {
	p.UpdatedAt = time.Now().UTC()
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": p.UserID},
		bson.M{"$set": bson.M{
			"user_id":        p.UserID,
			"do_not_disturb": p.DoNotDisturb,
			"new_feed":       p.NewFeed,
			"new_activity":   p.NewActivity,
			"invites":        p.Invites,
			"updated_at":     p.UpdatedAt,
		}},
		opts,
	)
	if err != nil {
		return models.NotificationPreference{}, apperr.Storage("save preferences", err)
	}
	return p, nil
}
