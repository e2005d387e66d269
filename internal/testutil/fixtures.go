package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role and returns it.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		Email:      email,
		AuthMethod: "password",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("fixture CreateUser: %v", err)
	}
	return user
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateCaregiver inserts a caregiver user.
func (f *Fixtures) CreateCaregiver(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCaregiver)
}

// CreateCarereceiver inserts a carereceiver user.
func (f *Fixtures) CreateCarereceiver(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCarereceiver)
}

// CreateGroup inserts a group with the given members. Membership join
// records are written alongside, mirroring what the group store does.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, members ...models.GroupMember) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	for i := range members {
		if members[i].AddedAt.IsZero() {
			members[i].AddedAt = now
		}
	}
	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Members:     members,
		MemberCount: len(members),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(members) > 0 {
		group.CreatedBy = members[0].UserID
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("fixture CreateGroup: %v", err)
	}
	for _, m := range members {
		rec := models.GroupMembership{
			ID:        primitive.NewObjectID(),
			GroupID:   group.ID,
			UserID:    m.UserID,
			Role:      m.Role,
			CreatedAt: now,
		}
		if _, err := f.db.Collection("group_memberships").InsertOne(ctx, rec); err != nil {
			f.t.Fatalf("fixture CreateGroup membership: %v", err)
		}
	}
	return group
}

// Member builds a GroupMember entry for CreateGroup.
func Member(userID primitive.ObjectID, role string) models.GroupMember {
	return models.GroupMember{UserID: userID, Role: role}
}

// CreateTask inserts a pending task in the group, created by assignedBy and
// optionally assigned to assignedTo.
func (f *Fixtures) CreateTask(ctx context.Context, groupID, assignedBy primitive.ObjectID, assignedTo *primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		GroupID:    groupID,
		Title:      title,
		AssignedBy: assignedBy,
		AssignedTo: assignedTo,
		Status:     models.TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("care_tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("fixture CreateTask: %v", err)
	}
	return task
}

// CreateOverdueTask inserts a pending task whose deadline passed an hour ago.
func (f *Fixtures) CreateOverdueTask(ctx context.Context, groupID, assignedBy primitive.ObjectID, assignedTo *primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	task := f.CreateTask(ctx, groupID, assignedBy, assignedTo, title)
	deadline := time.Now().UTC().Add(-time.Hour)
	task.Deadline = &deadline
	if _, err := f.db.Collection("care_tasks").UpdateByID(ctx, task.ID,
		map[string]any{"$set": map[string]any{"deadline": deadline}}); err != nil {
		f.t.Fatalf("fixture CreateOverdueTask: %v", err)
	}
	return task
}

// CreateNotification inserts a notification in the given status.
func (f *Fixtures) CreateNotification(ctx context.Context, userID, taskID primitive.ObjectID, notifType, status string) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		TaskID:    taskID,
		Type:      notifType,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("fixture CreateNotification: %v", err)
	}
	return n
}

// SavePreference inserts or replaces the user's notification preference.
func (f *Fixtures) SavePreference(ctx context.Context, pref models.NotificationPreference) models.NotificationPreference {
	f.t.Helper()

	if pref.ID.IsZero() {
		pref.ID = primitive.NewObjectID()
	}
	if pref.UpdatedAt.IsZero() {
		pref.UpdatedAt = time.Now().UTC()
	}
	if _, err := f.db.Collection("notification_preferences").DeleteMany(ctx,
		map[string]any{"user_id": pref.UserID}); err != nil {
		f.t.Fatalf("fixture SavePreference clear: %v", err)
	}
	if _, err := f.db.Collection("notification_preferences").InsertOne(ctx, pref); err != nil {
		f.t.Fatalf("fixture SavePreference: %v", err)
	}
	return pref
}
