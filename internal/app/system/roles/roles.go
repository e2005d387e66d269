// internal/app/system/roles/roles.go

// Package roles resolves a user's role within a care group by scanning the
// group's embedded member list. Member lists are small (a handful of people
// around one carereceiver), so a linear scan per lookup is fine and no
// caching is needed.
package roles

import (
	"context"

	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Set is a set of user IDs.
type Set map[primitive.ObjectID]struct{}

// Contains reports whether the set contains the given user.
func (s Set) Contains(userID primitive.ObjectID) bool {
	_, ok := s[userID]
	return ok
}

// Remove deletes a user from the set and returns the set for chaining.
func (s Set) Remove(userID primitive.ObjectID) Set {
	delete(s, userID)
	return s
}

// Resolver answers role questions against the groups collection.
type Resolver struct {
	groups *mongo.Collection
}

// New creates a Resolver over the given database.
func New(db *mongo.Database) *Resolver {
	return &Resolver{groups: db.Collection("groups")}
}

// RoleOf returns the user's role in the group, or "" if the group does not
// exist or the user is not a member. Absence is not an error; only storage
// failures are.
func (r *Resolver) RoleOf(ctx context.Context, userID, groupID primitive.ObjectID) (string, error) {
	g, err := r.load(ctx, groupID)
	if err != nil {
		return "", err
	}
	if g == nil {
		return "", nil
	}
	role, _ := g.MemberRole(userID)
	return role, nil
}

// UsersWithRole returns the IDs of all group members holding the given role.
// An absent group yields an empty set, never an error.
func (r *Resolver) UsersWithRole(ctx context.Context, groupID primitive.ObjectID, role string) (Set, error) {
	return r.UsersWithAnyRole(ctx, groupID, role)
}

// UsersWithAnyRole returns the IDs of all group members holding any of the
// given roles. An absent group yields an empty set, never an error.
func (r *Resolver) UsersWithAnyRole(ctx context.Context, groupID primitive.ObjectID, rolesWanted ...string) (Set, error) {
	out := Set{}
	g, err := r.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return out, nil
	}
	for _, m := range g.Members {
		for _, want := range rolesWanted {
			if m.Role == want {
				out[m.UserID] = struct{}{}
				break
			}
		}
	}
	return out, nil
}

func (r *Resolver) load(ctx context.Context, groupID primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	err := r.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("load group for role lookup", err)
	}
	return &g, nil
}
