// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupMember is one entry in a group's ordered member list.
// Invariant: at most one entry per user_id per group.
type GroupMember struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role    string             `bson:"role" json:"role"` // admin | caregiver | carereceiver
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}

// Group represents a care circle: the people coordinating around one or more
// carereceivers.
//
// NOTE:
//   - The member list is embedded on the group document and is the surface
//     role resolution scans. Flat join records are also written to
//     group_memberships in the same transaction (see groupstore.AddMember),
//     so per-user queries don't have to unwind the array.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`

	Members     []GroupMember `bson:"members" json:"members"`
	MemberCount int           `bson:"member_count" json:"member_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberRole scans the embedded member list for userID and returns the
// member's role plus a found flag.
func (g *Group) MemberRole(userID primitive.ObjectID) (string, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// GroupMembership is the flat join record between users and groups.
// Exactly one document per (group_id, user_id).
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
