// internal/app/store/tasks/taskstore.go

// Package taskstore owns the care_tasks collection and enforces the task
// lifecycle: pending → in-progress → done. Transition rules live here so
// every caller (HTTP handlers, the escalation sweeper, tests) goes through
// the same checks.
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/caretrack/internal/app/system/htmlsanitize"
	"github.com/dalemusser/caretrack/internal/app/system/normalize"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("care_tasks"),
		users: db.Collection("users"),
	}
}

// GetByID loads a task by ObjectID. Returns a NotFound error if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("task")
		}
		return nil, apperr.Storage("load task", err)
	}
	return &t, nil
}

// Create inserts a new task. Tasks always start pending. If an assignee is
// given, it must reference an existing user.
func (s *Store) Create(ctx context.Context, t models.Task) (*models.Task, error) {
	t.Title = normalize.Name(t.Title)
	if t.Title == "" {
		return nil, apperr.Validation("task title is required")
	}
	if t.GroupID.IsZero() {
		return nil, apperr.Validation("task group is required")
	}
	t.Priority = normalize.Role(t.Priority)
	if !models.ValidPriority(t.Priority) {
		return nil, apperr.Validation(`priority must be "low", "medium", or "high"`)
	}
	t.Description = htmlsanitize.Sanitize(t.Description)

	if t.AssignedTo != nil {
		err := s.users.FindOne(ctx, bson.M{"_id": *t.AssignedTo}).Err()
		if err == mongo.ErrNoDocuments {
			return nil, apperr.Validation("assignee does not exist")
		}
		if err != nil {
			return nil, apperr.Storage("load assignee", err)
		}
	}

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Status = models.TaskStatusPending
	t.Escalated = false
	t.AcceptedAt = nil
	t.CompletedAt = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return nil, apperr.Storage("insert task", err)
	}
	return &t, nil
}

// Accept moves a pending task to in-progress and stamps accepted_at.
// Accepting a task that is already in-progress or done is a conflict and
// never re-stamps accepted_at.
func (s *Store) Accept(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.TaskStatusPending},
		bson.M{"$set": bson.M{
			"status":      models.TaskStatusInProgress,
			"accepted_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return nil, apperr.Storage("accept task", err)
	}
	if res.MatchedCount == 0 {
		t, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("task is %s, only pending tasks can be accepted", t.Status)
	}
	return s.GetByID(ctx, id)
}

// Complete marks a task done and records how it was completed. A task may be
// completed directly from pending; completing an already-done task is a
// conflict so completed_at is stamped at most once.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, method, notes, evidenceURL string) (*models.Task, error) {
	method = normalize.Role(method)
	if !models.ValidCompletionMethod(method) {
		return nil, apperr.Validation(`completion method must be "manual", "photo", or "input"`)
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":            models.TaskStatusDone,
		"completed_at":      now,
		"completion_method": method,
		"completion_notes":  htmlsanitize.Sanitize(notes),
		"updated_at":        now,
	}
	// Evidence only applies to photo completions.
	if method == models.CompletionPhoto {
		set["evidence_url"] = normalize.QueryParam(evidenceURL)
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.TaskStatusDone}},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, apperr.Storage("complete task", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("task is already done")
	}
	return s.GetByID(ctx, id)
}

// SetStatus is the generic transition used by the status-update endpoint.
// Side effects derive from the transition, not the target alone:
//   - pending → in-progress stamps accepted_at
//   - any non-done → done stamps completed_at
//   - done → done changes nothing (completed_at is never re-stamped)
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, newStatus string) (*models.Task, error) {
	newStatus = normalize.Status(newStatus)
	if !models.ValidTaskStatus(newStatus) {
		return nil, apperr.Validation("unknown task status %q", newStatus)
	}

	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == newStatus {
		return t, nil
	}

	now := time.Now().UTC()
	set := bson.M{"status": newStatus, "updated_at": now}
	if t.Status == models.TaskStatusPending && newStatus == models.TaskStatusInProgress {
		set["accepted_at"] = now
	}
	if newStatus == models.TaskStatusDone {
		set["completed_at"] = now
	}

	// Filter on the old status so a concurrent transition can't double-stamp.
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": t.Status}, bson.M{"$set": set})
	if err != nil {
		return nil, apperr.Storage("set task status", err)
	}
	if res.MatchedCount == 0 {
		return nil, apperr.Conflict("task status changed concurrently, retry")
	}
	return s.GetByID(ctx, id)
}

// Update applies field edits that don't touch lifecycle state.
type Update struct {
	Title       *string
	Description *string
	Priority    *string
	Deadline    *time.Time
	AssignedTo  *primitive.ObjectID
}

// Update edits a task's non-lifecycle fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		if title == "" {
			return nil, apperr.Validation("task title cannot be empty")
		}
		set["title"] = title
	}
	if upd.Description != nil {
		set["description"] = htmlsanitize.Sanitize(*upd.Description)
	}
	if upd.Priority != nil {
		p := normalize.Role(*upd.Priority)
		if !models.ValidPriority(p) {
			return nil, apperr.Validation(`priority must be "low", "medium", or "high"`)
		}
		set["priority"] = p
	}
	if upd.Deadline != nil {
		set["deadline"] = *upd.Deadline
	}
	if upd.AssignedTo != nil {
		err := s.users.FindOne(ctx, bson.M{"_id": *upd.AssignedTo}).Err()
		if err == mongo.ErrNoDocuments {
			return nil, apperr.Validation("assignee does not exist")
		}
		if err != nil {
			return nil, apperr.Storage("load assignee", err)
		}
		set["assigned_to"] = *upd.AssignedTo
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return nil, apperr.Storage("update task", err)
	}
	if res.MatchedCount == 0 {
		return nil, apperr.NotFound("task")
	}
	return s.GetByID(ctx, id)
}

// Delete removes a task. Deletion is plain CRUD, not a lifecycle step.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Storage("delete task", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

// ListByGroup returns a group's tasks, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"group_id": groupID})
}

// ListAssignedTo returns tasks assigned to the given user, newest first.
func (s *Store) ListAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"assigned_to": userID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	return tasks, nil
}

// FindOverdue returns escalation candidates: tasks whose deadline has passed,
// that aren't done, and that haven't been escalated yet.
func (s *Store) FindOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	return s.list(ctx, bson.M{
		"deadline":  bson.M{"$lt": now},
		"status":    bson.M{"$ne": models.TaskStatusDone},
		"escalated": bson.M{"$ne": true},
	})
}

// MarkEscalated flips escalated false→true. The filter makes the write
// idempotent: a task already escalated matches nothing and the flag is
// never reset. Returns true if this call performed the flip.
func (s *Store) MarkEscalated(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "escalated": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"escalated": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, apperr.Storage("mark task escalated", err)
	}
	return res.ModifiedCount > 0, nil
}
