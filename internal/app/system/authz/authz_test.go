package authz_test

import (
	"testing"

	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx(t *testing.T) {
	anonymous := testutil.NewRequest("GET", "/")
	if _, ok := authz.UserCtx(anonymous); ok {
		t.Error("anonymous request should have no principal")
	}

	user := testutil.AdminUser()
	req := testutil.WithUser(testutil.NewRequest("GET", "/"), user)
	p, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.ID.Hex() != user.ID {
		t.Errorf("principal id %s", p.ID.Hex())
	}
	if p.Role != "admin" {
		t.Errorf("principal role %q", p.Role)
	}
}

func TestUserCtx_MalformedIDFailsClosed(t *testing.T) {
	req := testutil.WithUser(testutil.NewRequest("GET", "/"), testutil.TestUser{
		ID:   "not-a-hex-id",
		Name: "Broken",
		Role: "admin",
	})
	if _, ok := authz.UserCtx(req); ok {
		t.Error("malformed session id should fail closed")
	}
}

func TestIsAdmin(t *testing.T) {
	admin := testutil.WithUser(testutil.NewRequest("GET", "/"), testutil.AdminUser())
	carer := testutil.WithUser(testutil.NewRequest("GET", "/"), testutil.CaregiverUser())

	if !authz.IsAdmin(admin) {
		t.Error("admin session should be admin")
	}
	if authz.IsAdmin(carer) {
		t.Error("caregiver session should not be admin")
	}
	if authz.IsAdmin(testutil.NewRequest("GET", "/")) {
		t.Error("anonymous request should not be admin")
	}
}

func TestUserCtx_RoleNormalized(t *testing.T) {
	req := testutil.WithUser(testutil.NewRequest("GET", "/"), testutil.TestUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Mixed Case",
		Role: "ADMIN",
	})
	p, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.Role != "admin" {
		t.Errorf("role not normalized: %q", p.Role)
	}
}
