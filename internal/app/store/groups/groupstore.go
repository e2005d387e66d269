// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/dalemusser/caretrack/internal/app/system/normalize"
	"github.com/dalemusser/caretrack/internal/app/system/txn"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db          *mongo.Database
	c           *mongo.Collection
	memberships *mongo.Collection
	users       *mongo.Collection
	log         *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		db:          db,
		c:           db.Collection("groups"),
		memberships: db.Collection("group_memberships"),
		users:       db.Collection("users"),
		log:         log,
	}
}

// GetByID loads a group by ObjectID. Returns a NotFound error if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("group")
		}
		return nil, apperr.Storage("load group", err)
	}
	return &g, nil
}

// Create inserts a new group with the creator as its first admin member.
func (s *Store) Create(ctx context.Context, name, description string, createdBy primitive.ObjectID) (*models.Group, error) {
	name = normalize.Name(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: normalize.Name(description),
		CreatedBy:   createdBy,
		Members: []models.GroupMember{
			{UserID: createdBy, Role: models.RoleAdmin, AddedAt: now},
		},
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, g); err != nil {
			return err
		}
		_, err := s.memberships.InsertOne(ctx, models.GroupMembership{
			GroupID:   g.ID,
			UserID:    createdBy,
			Role:      models.RoleAdmin,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, apperr.Storage("create group", err)
	}
	return &g, nil
}

// AddMember adds a user to a group: insert the flat membership record, push
// onto the group's embedded member array, and bump the member counter. The
// three writes commit or abort together.
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role == "" {
		return apperr.Validation("member role is required")
	}
	if !models.ValidRole(role) {
		return apperr.Validation(`role must be "admin", "caregiver", or "carereceiver"`)
	}

	// Verify the user exists before touching the group.
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperr.NotFound("user")
		}
		return apperr.Storage("load user", err)
	}

	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if _, exists := g.MemberRole(userID); exists {
		return apperr.Conflict("user is already a member of this group")
	}

	now := time.Now().UTC()
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.memberships.InsertOne(ctx, models.GroupMembership{
			GroupID:   groupID,
			UserID:    userID,
			Role:      role,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		_, err := s.c.UpdateByID(ctx, groupID, bson.M{
			"$push": bson.M{"members": models.GroupMember{UserID: userID, Role: role, AddedAt: now}},
			"$inc":  bson.M{"member_count": 1},
			"$set":  bson.M{"updated_at": now},
		})
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("user is already a member of this group")
		}
		return apperr.Storage("add group member", err)
	}
	return nil
}

// RemoveMember removes a user from a group, reversing all three writes
// performed by AddMember.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if _, exists := g.MemberRole(userID); !exists {
		return apperr.NotFound("group member")
	}

	now := time.Now().UTC()
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.memberships.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID}); err != nil {
			return err
		}
		_, err := s.c.UpdateByID(ctx, groupID, bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$inc":  bson.M{"member_count": -1},
			"$set":  bson.M{"updated_at": now},
		})
		return err
	})
	if err != nil {
		return apperr.Storage("remove group member", err)
	}
	return nil
}

// ListByIDs loads the groups for a set of IDs. Missing IDs are silently
// absent from the result.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Storage("list groups", err)
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, apperr.Storage("list groups", err)
	}
	return groups, nil
}

// GroupsOf returns the IDs of all groups the user belongs to, from the flat
// membership records.
func (s *Store) GroupsOf(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.memberships.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, apperr.Storage("list memberships", err)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.GroupMembership
		if cur.Decode(&m) == nil {
			ids = append(ids, m.GroupID)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Storage("list memberships", err)
	}
	return ids, nil
}
