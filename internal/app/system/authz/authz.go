// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/caretrack/internal/app/system/auth"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated actor every policy check takes explicitly.
type Principal struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

// UserCtx returns the request's principal and a found flag. If no user is
// present in context or the user ID is malformed, it returns a zero
// Principal and false, so ok=true always means a valid authenticated user
// with a valid ObjectID. The role is normalized to lowercase.
func UserCtx(r *http.Request) (Principal, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return Principal{}, false
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return Principal{}, false
	}
	return Principal{ID: uid, Name: user.Name, Role: strings.ToLower(user.Role)}, true
}

// IsAdmin reports whether the current request's user is an admin.
// Handlers use this for the platform-admin bypass on group-scoped
// resources; finer checks go through taskpolicy with the Principal.
func IsAdmin(r *http.Request) bool {
	p, ok := UserCtx(r)
	return ok && p.Role == models.RoleAdmin
}
