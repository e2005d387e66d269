package auditlog_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/caretrack/internal/app/features/auditlog"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	"github.com/dalemusser/caretrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*auditlog.Handler, *audit.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	return auditlog.NewHandler(store, zap.NewNop()), store, testutil.NewFixtures(t, db)
}

func logEvent(t *testing.T, store *audit.Store, category, eventType string, ts time.Time, taskID *primitive.ObjectID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	err := store.Log(ctx, audit.Event{
		Timestamp: ts,
		Category:  category,
		EventType: eventType,
		TaskID:    taskID,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("log event: %v", err)
	}
}

func TestServeList_RequiresAdmin(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/audit")
	req = testutil.WithUser(req, testutil.CaregiverUser())

	rec := testutil.NewRecorder()
	handler.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeList_RequiresAuthentication(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/audit")
	rec := testutil.NewRecorder()
	handler.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeList_FiltersByCategory(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	now := time.Now().UTC()
	logEvent(t, store, audit.CategoryAuth, audit.EventLoginSuccess, now, nil)
	logEvent(t, store, audit.CategoryTask, audit.EventTaskCreated, now, nil)
	logEvent(t, store, audit.CategoryTask, audit.EventTaskCompleted, now, nil)

	req := testutil.NewRequest("GET", "/audit?category=task")
	req = testutil.WithUser(req, testutil.AdminUser())

	rec := testutil.NewRecorder()
	handler.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Events []map[string]any `json:"events"`
		Total  int64            `json:"total"`
		Page   int              `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected total 2, got %d", resp.Total)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	for _, e := range resp.Events {
		if e["category"] != audit.CategoryTask {
			t.Errorf("unexpected category %v", e["category"])
		}
	}
	if resp.Page != 1 {
		t.Errorf("expected page 1, got %d", resp.Page)
	}
}

func TestServeList_DateWindow(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	inWindow := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	before := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	after := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	logEvent(t, store, audit.CategoryAuth, audit.EventLoginSuccess, inWindow, nil)
	logEvent(t, store, audit.CategoryAuth, audit.EventLoginSuccess, before, nil)
	logEvent(t, store, audit.CategoryAuth, audit.EventLoginSuccess, after, nil)

	req := testutil.NewRequest("GET", "/audit?start_date=2026-03-05&end_date=2026-03-15")
	req = testutil.WithUser(req, testutil.AdminUser())

	rec := testutil.NewRecorder()
	handler.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 event in window, got %d", resp.Total)
	}
}

func TestServeList_EndDateIncludesWholeDay(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	lateInDay := time.Date(2026, 3, 15, 23, 45, 0, 0, time.UTC)
	logEvent(t, store, audit.CategoryAuth, audit.EventLogout, lateInDay, nil)

	req := testutil.NewRequest("GET", "/audit?end_date=2026-03-15")
	req = testutil.WithUser(req, testutil.AdminUser())

	rec := testutil.NewRecorder()
	handler.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected evening event included, got total %d", resp.Total)
	}
}

func TestServeTaskHistory_ReturnsTaskTrail(t *testing.T) {
	handler, store, fixtures := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	admin := fixtures.CreateAdmin(ctx, "Ada Admin", "ada@test.com")
	group := fixtures.CreateGroup(ctx, "Day Shift", testutil.Member(admin.ID, "admin"))
	task := fixtures.CreateTask(ctx, group.ID, admin.ID, nil, "Refill prescriptions")
	cancel()

	now := time.Now().UTC()
	logEvent(t, store, audit.CategoryTask, audit.EventTaskCreated, now.Add(-2*time.Hour), &task.ID)
	logEvent(t, store, audit.CategoryTask, audit.EventTaskAccepted, now.Add(-time.Hour), &task.ID)
	otherTask := primitive.NewObjectID()
	logEvent(t, store, audit.CategoryTask, audit.EventTaskCreated, now, &otherTask)

	req := testutil.NewRequest("GET", "/audit/task/"+task.ID.Hex())
	req = testutil.WithUser(req, testutil.AsUser(admin))
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())

	rec := testutil.NewRecorder()
	handler.ServeTaskHistory(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var trail []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &trail); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 events for task, got %d", len(trail))
	}
	if trail[0]["event_type"] != audit.EventTaskAccepted {
		t.Errorf("expected newest event first, got %v", trail[0]["event_type"])
	}
}

func TestServeTaskHistory_InvalidID(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/audit/task/not-an-id")
	req = testutil.WithUser(req, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", "not-an-id")

	rec := testutil.NewRecorder()
	handler.ServeTaskHistory(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}
