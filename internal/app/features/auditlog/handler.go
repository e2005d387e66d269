// Package auditlog is the admin-facing audit query API: who did what,
// when, filtered by category, event type, and time window.
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"github.com/dalemusser/caretrack/internal/app/system/timeouts"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(store *audit.Store, log *zap.Logger) *Handler {
	return &Handler{Audit: store, Log: log}
}

// eventView is the JSON shape of an audit event.
type eventView struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	UserID        string            `json:"user_id,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	GroupID       string            `json:"group_id,omitempty"`
	TaskID        string            `json:"task_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toView(e audit.Event) eventView {
	v := eventView{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.UserID != nil {
		v.UserID = e.UserID.Hex()
	}
	if e.ActorID != nil {
		v.ActorID = e.ActorID.Hex()
	}
	if e.GroupID != nil {
		v.GroupID = e.GroupID.Hex()
	}
	if e.TaskID != nil {
		v.TaskID = e.TaskID.Hex()
	}
	return v
}

type listResponse struct {
	Events     []eventView `json:"events"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apierrors.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return authz.Principal{}, false
	}
	if !authz.IsAdmin(r) {
		apierrors.Render(w, h.Log, apperr.Forbidden("admin role required"))
		return authz.Principal{}, false
	}
	return actor, true
}

// ServeList handles GET /audit. Filters: category, event_type,
// start_date, end_date (YYYY-MM-DD), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(r.URL.Query().Get("category")),
		EventType: strings.TrimSpace(r.URL.Query().Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("start_date")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartTime = &t
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end_date")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Storage("query audit events", err))
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Storage("count audit events", err))
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toView(e))
	}
	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	apierrors.JSON(w, http.StatusOK, listResponse{
		Events:     views,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

// ServeTaskHistory handles GET /audit/task/{id}: the event trail for one
// task, newest first.
func (h *Handler) ServeTaskHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid task id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit task history")
	defer cancel()

	events, err := h.Audit.GetByTask(ctx, taskID, pageSize)
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Storage("query task audit events", err))
		return
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toView(e))
	}
	apierrors.JSON(w, http.StatusOK, views)
}
