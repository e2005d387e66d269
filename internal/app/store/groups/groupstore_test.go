package groupstore_test

import (
	"testing"

	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*groupstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return groupstore.New(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestCreate_CreatorBecomesAdminMember(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")

	group, err := store.Create(ctx, "  Evening Care  ", "evening shift", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.Name != "Evening Care" {
		t.Errorf("name not normalized: %q", group.Name)
	}
	if group.MemberCount != 1 {
		t.Errorf("member count %d", group.MemberCount)
	}
	role, ok := group.MemberRole(creator.ID)
	if !ok || role != models.RoleAdmin {
		t.Errorf("creator should be admin member, got %q %v", role, ok)
	}

	// The flat membership record must exist too.
	ids, err := store.GroupsOf(ctx, creator.ID)
	if err != nil {
		t.Fatalf("groups of: %v", err)
	}
	if len(ids) != 1 || ids[0] != group.ID {
		t.Errorf("membership record missing, got %v", ids)
	}
}

func TestCreate_BlankName(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	_, err := store.Create(ctx, "   ", "", creator.ID)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAddMember_BothRecordsWritten(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	receiver := fixtures.CreateCarereceiver(ctx, "Rita Receiver", "rita@test.com")
	group, err := store.Create(ctx, "Evening Care", "", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.AddMember(ctx, group.ID, receiver.ID, "carereceiver"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	reloaded, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MemberCount != 2 {
		t.Errorf("member count %d", reloaded.MemberCount)
	}
	role, ok := reloaded.MemberRole(receiver.ID)
	if !ok || role != models.RoleCarereceiver {
		t.Errorf("member role %q %v", role, ok)
	}
	ids, err := store.GroupsOf(ctx, receiver.ID)
	if err != nil {
		t.Fatalf("groups of: %v", err)
	}
	if len(ids) != 1 || ids[0] != group.ID {
		t.Errorf("flat membership missing, got %v", ids)
	}
}

func TestAddMember_Validation(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	other := fixtures.CreateCaregiver(ctx, "Olive Other", "olive@test.com")
	group, err := store.Create(ctx, "Evening Care", "", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.AddMember(ctx, group.ID, other.ID, ""); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty role: expected validation error, got %v", err)
	}
	if err := store.AddMember(ctx, group.ID, other.ID, "supervisor"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unknown role: expected validation error, got %v", err)
	}
	if err := store.AddMember(ctx, group.ID, primitive.NewObjectID(), "caregiver"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown user: expected not found, got %v", err)
	}
	if err := store.AddMember(ctx, primitive.NewObjectID(), other.ID, "caregiver"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown group: expected not found, got %v", err)
	}
}

func TestAddMember_DuplicateIsConflict(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	other := fixtures.CreateCaregiver(ctx, "Olive Other", "olive@test.com")
	group, err := store.Create(ctx, "Evening Care", "", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.AddMember(ctx, group.ID, other.ID, "caregiver"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := store.AddMember(ctx, group.ID, other.ID, "caregiver"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate add: expected conflict, got %v", err)
	}

	// Creator is already a member via Create.
	if err := store.AddMember(ctx, group.ID, creator.ID, "admin"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("re-adding creator: expected conflict, got %v", err)
	}
}

func TestRemoveMember_ReversesAllWrites(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	other := fixtures.CreateCaregiver(ctx, "Olive Other", "olive@test.com")
	group, err := store.Create(ctx, "Evening Care", "", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.AddMember(ctx, group.ID, other.ID, "caregiver"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if err := store.RemoveMember(ctx, group.ID, other.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	reloaded, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MemberCount != 1 {
		t.Errorf("member count %d", reloaded.MemberCount)
	}
	if _, ok := reloaded.MemberRole(other.ID); ok {
		t.Error("removed user still in embedded members")
	}
	ids, err := store.GroupsOf(ctx, other.ID)
	if err != nil {
		t.Fatalf("groups of: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("flat membership not removed, got %v", ids)
	}
}

func TestRemoveMember_NotAMember(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	outsider := fixtures.CreateCaregiver(ctx, "Olive Other", "olive@test.com")
	group, err := store.Create(ctx, "Evening Care", "", creator.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.RemoveMember(ctx, group.ID, outsider.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListByIDs(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	a, err := store.Create(ctx, "Group A", "", creator.ID)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := store.Create(ctx, "Group B", "", creator.ID)
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	groups, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(groups))
	}

	empty, err := store.ListByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if empty != nil {
		t.Errorf("expected nil for empty input, got %v", empty)
	}
}
