package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/indexes"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) (*userstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return userstore.New(db), db
}

func TestCreate_NormalizesFields(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{
		FullName: "  Carl Caregiver  ",
		Email:    "  Carl@Test.COM ",
		Role:     "CAREGIVER",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.FullName != "Carl Caregiver" {
		t.Errorf("name %q", u.FullName)
	}
	if u.Email != "carl@test.com" {
		t.Errorf("email %q", u.Email)
	}
	if u.Role != models.RoleCaregiver {
		t.Errorf("role %q", u.Role)
	}
	if u.Status != "active" {
		t.Errorf("status %q", u.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{FullName: "No Email", Role: "caregiver"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("missing email: expected validation error, got %v", err)
	}
	_, err = store.Create(ctx, models.User{Email: "x@test.com", Role: "superuser"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad role: expected validation error, got %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store, db := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	if _, err := store.Create(ctx, models.User{Email: "dup@test.com", Role: "caregiver"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, models.User{Email: "DUP@test.com", Role: "caregiver"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate email: expected conflict, got %v", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "rita@test.com", Role: "carereceiver"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetByEmail(ctx, "  RITA@Test.com ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != created.ID {
		t.Error("lookup returned wrong user")
	}

	if _, err := store.GetByEmail(ctx, "nobody@test.com"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown email: expected not found, got %v", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Email: "carl@test.com", Role: "caregiver"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SetPassword(ctx, u.ID, "short"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("short password: expected validation error, got %v", err)
	}
	if err := store.SetPassword(ctx, u.ID, "correct-horse-battery"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	reloaded, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !store.VerifyPassword(reloaded, "correct-horse-battery") {
		t.Error("correct password rejected")
	}
	if store.VerifyPassword(reloaded, "wrong-password") {
		t.Error("wrong password accepted")
	}
	if store.VerifyPassword(&u, "correct-horse-battery") {
		t.Error("user without stored hash should never verify")
	}
}

func TestSetRole(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Email: "carl@test.com", Role: "caregiver"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SetRole(ctx, u.ID, "ADMIN"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	reloaded, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Role != models.RoleAdmin {
		t.Errorf("role %q", reloaded.Role)
	}

	if err := store.SetRole(ctx, u.ID, "superuser"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad role: expected validation error, got %v", err)
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), "admin"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown user: expected not found, got %v", err)
	}
}

func TestUpsertGoogleUser(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.UpsertGoogleUser(ctx, "New@Test.com", "New Person")
	if err != nil {
		t.Fatalf("upsert new: %v", err)
	}
	if created.Role != models.RoleCaregiver {
		t.Errorf("new google user role %q", created.Role)
	}
	if created.AuthMethod != "google" {
		t.Errorf("auth method %q", created.AuthMethod)
	}
	if created.Email != "new@test.com" {
		t.Errorf("email %q", created.Email)
	}

	// Second sign-in returns the same user, not a duplicate.
	again, err := store.UpsertGoogleUser(ctx, "new@test.com", "Renamed Person")
	if err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	if again.ID != created.ID {
		t.Error("upsert created a duplicate user")
	}
	if again.FullName != "New Person" {
		t.Errorf("existing user renamed to %q", again.FullName)
	}
}
