// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Care roles. A user carries one system-wide role; the same role vocabulary
// is used for per-group membership entries.
const (
	RoleAdmin        = "admin"
	RoleCaregiver    = "caregiver"
	RoleCarereceiver = "carereceiver"
)

// ValidRole reports whether role is one of the three care roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCaregiver || role == RoleCarereceiver
}

// User represents admins, caregivers, and carereceivers.
//
// NOTE:
//   - Group membership is not embedded on User; the member list lives on
//     the Group document (with flat join records in group_memberships).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // "password" | "google"
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // admin | caregiver | carereceiver
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
