package taskstore_test

import (
	"testing"
	"time"

	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) (*taskstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return taskstore.New(db), testutil.NewFixtures(t, db)
}

func TestCreate_StartsPending(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))

	task, err := store.Create(ctx, models.Task{
		GroupID:    group.ID,
		Title:      "  Morning medication  ",
		Priority:   "HIGH",
		AssignedBy: admin.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("expected pending, got %q", task.Status)
	}
	if task.Title != "Morning medication" {
		t.Errorf("title not normalized: %q", task.Title)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("priority not normalized: %q", task.Priority)
	}
	if task.AcceptedAt != nil || task.CompletedAt != nil {
		t.Error("new task should have no lifecycle timestamps")
	}
	if task.Escalated {
		t.Error("new task should not be escalated")
	}
}

func TestCreate_RejectsBadInput(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))

	_, err := store.Create(ctx, models.Task{GroupID: group.ID, Title: "   "})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("blank title: expected validation error, got %v", err)
	}

	_, err = store.Create(ctx, models.Task{Title: "No group"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("missing group: expected validation error, got %v", err)
	}

	_, err = store.Create(ctx, models.Task{GroupID: group.ID, Title: "Bad priority", Priority: "urgent"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad priority: expected validation error, got %v", err)
	}

	ghost := primitive.NewObjectID()
	_, err = store.Create(ctx, models.Task{GroupID: group.ID, Title: "Ghost assignee", AssignedTo: &ghost})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unknown assignee: expected validation error, got %v", err)
	}
}

func TestCreate_SanitizesDescription(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))

	task, err := store.Create(ctx, models.Task{
		GroupID:     group.ID,
		Title:       "Check vitals",
		Description: `<script>alert("x")</script>Take blood pressure`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Description != "Take blood pressure" {
		t.Errorf("description not sanitized: %q", task.Description)
	}
}

func TestAccept_PendingToInProgress(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Refill prescriptions")

	accepted, err := store.Accept(ctx, task.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.TaskStatusInProgress {
		t.Errorf("expected in-progress, got %q", accepted.Status)
	}
	if accepted.AcceptedAt == nil {
		t.Fatal("accepted_at not stamped")
	}

	// Second accept is a conflict and must not re-stamp accepted_at.
	_, err = store.Accept(ctx, task.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("double accept: expected conflict, got %v", err)
	}
	reloaded, err := store.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.AcceptedAt.Equal(*accepted.AcceptedAt) {
		t.Error("accepted_at was re-stamped")
	}
}

func TestAccept_UnknownTask(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Accept(ctx, primitive.NewObjectID())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestComplete_DirectlyFromPending(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Evening walk")

	done, err := store.Complete(ctx, task.ID, "manual", "went around the block", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.TaskStatusDone {
		t.Errorf("expected done, got %q", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
	if done.CompletionMethod != models.CompletionManual {
		t.Errorf("completion method %q", done.CompletionMethod)
	}
	if done.AcceptedAt != nil {
		t.Error("pending-to-done should not stamp accepted_at")
	}
}

func TestComplete_EvidenceOnlyForPhoto(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))

	photoTask := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Photo proof")
	done, err := store.Complete(ctx, photoTask.ID, "photo", "", "https://cdn.test/p.jpg")
	if err != nil {
		t.Fatalf("complete photo: %v", err)
	}
	if done.EvidenceURL != "https://cdn.test/p.jpg" {
		t.Errorf("evidence url %q", done.EvidenceURL)
	}

	manualTask := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "No evidence")
	done, err = store.Complete(ctx, manualTask.ID, "manual", "", "https://cdn.test/ignored.jpg")
	if err != nil {
		t.Fatalf("complete manual: %v", err)
	}
	if done.EvidenceURL != "" {
		t.Errorf("manual completion stored evidence %q", done.EvidenceURL)
	}
}

func TestComplete_AlreadyDoneIsConflict(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "One and done")

	first, err := store.Complete(ctx, task.ID, "manual", "", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = store.Complete(ctx, task.ID, "input", "", "")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("double complete: expected conflict, got %v", err)
	}

	reloaded, err := store.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("completed_at was re-stamped")
	}
	if reloaded.CompletionMethod != models.CompletionManual {
		t.Errorf("completion method overwritten to %q", reloaded.CompletionMethod)
	}
}

func TestComplete_InvalidMethod(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Bad method")

	_, err := store.Complete(ctx, task.ID, "telepathy", "", "")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSetStatus_TransitionSideEffects(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Lifecycle")

	inProgress, err := store.SetStatus(ctx, task.ID, "in-progress")
	if err != nil {
		t.Fatalf("to in-progress: %v", err)
	}
	if inProgress.AcceptedAt == nil {
		t.Error("pending to in-progress should stamp accepted_at")
	}

	done, err := store.SetStatus(ctx, task.ID, "done")
	if err != nil {
		t.Fatalf("to done: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("transition to done should stamp completed_at")
	}

	// done -> done is a no-op and never re-stamps.
	again, err := store.SetStatus(ctx, task.ID, "done")
	if err != nil {
		t.Fatalf("done to done: %v", err)
	}
	if !again.CompletedAt.Equal(*done.CompletedAt) {
		t.Error("completed_at re-stamped on no-op transition")
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Bad status")

	_, err := store.SetStatus(ctx, task.ID, "paused")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_EditsFields(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	carer := fixtures.CreateCaregiver(ctx, "Carl Caregiver", "carl@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Old title")

	title := "New title"
	deadline := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Millisecond)
	updated, err := store.Update(ctx, task.ID, taskstore.Update{
		Title:      &title,
		Deadline:   &deadline,
		AssignedTo: &carer.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New title" {
		t.Errorf("title %q", updated.Title)
	}
	if updated.Deadline == nil || !updated.Deadline.Equal(deadline) {
		t.Errorf("deadline %v", updated.Deadline)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != carer.ID {
		t.Errorf("assignee %v", updated.AssignedTo)
	}
	if updated.Status != models.TaskStatusPending {
		t.Errorf("update must not touch lifecycle state, got %q", updated.Status)
	}
}

func TestUpdate_RejectsUnknownAssignee(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Reassign")

	ghost := primitive.NewObjectID()
	_, err := store.Update(ctx, task.ID, taskstore.Update{AssignedTo: &ghost})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Gone soon")

	if err := store.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, task.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, task.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("double delete: expected not found, got %v", err)
	}
}

func TestFindOverdue_SkipsDoneAndEscalated(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))

	overdue := fixtures.CreateOverdueTask(ctx, group.ID, admin.ID, nil, "Overdue pending")
	doneTask := fixtures.CreateOverdueTask(ctx, group.ID, admin.ID, nil, "Overdue but done")
	if _, err := store.Complete(ctx, doneTask.ID, "manual", "", ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	flagged := fixtures.CreateOverdueTask(ctx, group.ID, admin.ID, nil, "Already escalated")
	if _, err := store.MarkEscalated(ctx, flagged.ID); err != nil {
		t.Fatalf("mark escalated: %v", err)
	}
	fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "No deadline")

	candidates, err := store.FindOverdue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("find overdue: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != overdue.ID {
		t.Errorf("wrong candidate %s", candidates[0].Title)
	}
}

func TestMarkEscalated_Idempotent(t *testing.T) {
	store, fixtures := newStore(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, models.RoleAdmin))
	task := fixtures.CreateOverdueTask(ctx, group.ID, admin.ID, nil, "Escalate once")

	first, err := store.MarkEscalated(ctx, task.ID)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !first {
		t.Error("first mark should report the flip")
	}
	second, err := store.MarkEscalated(ctx, task.ID)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if second {
		t.Error("second mark must be a no-op")
	}
}
