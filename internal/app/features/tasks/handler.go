// Package tasks is the care-task API: creation, listing, the lifecycle
// transitions, and task management.
//
// Every mutating handler resolves the actor from the session, fetches the
// documents a decision needs, and runs the policy check before touching
// the store. Denials carry their reason; store failures surface opaquely.
package tasks

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/policy/taskpolicy"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	userstore "github.com/dalemusser/caretrack/internal/app/store/users"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"github.com/dalemusser/caretrack/internal/app/system/notify"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the task feature's dependencies.
type Handler struct {
	Tasks    *taskstore.Store
	Groups   *groupstore.Store
	Users    *userstore.Store
	Gate     *notify.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(tasks *taskstore.Store, groups *groupstore.Store, users *userstore.Store, gate *notify.Gate, audit *auditlog.Logger, log *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Groups: groups, Users: users, Gate: gate, AuditLog: audit, Log: log}
}

// principal pulls the actor out of the request, or writes a 401.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apierrors.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return authz.Principal{}, false
	}
	return actor, true
}

// pathID parses the {id} URL parameter as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// loadForView fetches the task and checks the actor may see it.
func (h *Handler) loadForView(r *http.Request, actor authz.Principal) (*models.Task, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := taskpolicy.HasTaskPermission(actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

type createRequest struct {
	GroupID     string     `json:"group_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	AssignedTo  string     `json:"assigned_to"`
}

// HandleCreate handles POST /tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := taskpolicy.CanManageTasks(actor); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid group_id"))
		return
	}

	ctx := r.Context()
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	task := models.Task{
		GroupID:     groupID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		AssignedBy:  actor.ID,
	}

	if req.AssignedTo != "" {
		assigneeID, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			apierrors.Render(w, h.Log, apperr.Validation("invalid assigned_to"))
			return
		}
		assignee, err := h.Users.GetByID(ctx, assigneeID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			apierrors.Render(w, h.Log, err)
			return
		}
		// A missing assignee reaches the policy as nil and is denied there.
		if err := taskpolicy.CanAssignTask(actor, group, assignee); err != nil {
			apierrors.Render(w, h.Log, err)
			return
		}
		task.AssignedTo = &assigneeID
	}

	created, err := h.Tasks.Create(ctx, task)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskCreated, actor.ID, created.ID, created.GroupID,
		map[string]string{"title": created.Title})

	// The assignee hears about their new task unless their preferences
	// say otherwise.
	if created.AssignedTo != nil && *created.AssignedTo != actor.ID {
		if _, err := h.Gate.CreateIfAllowed(ctx, *created.AssignedTo, created.ID, models.NotifyNewActivity); err != nil {
			h.Log.Error("assignment notification failed",
				zap.String("task_id", created.ID.Hex()),
				zap.Error(err))
		}
	}

	apierrors.JSON(w, http.StatusCreated, created)
}

// ServeTask handles GET /tasks/{id}.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	task, err := h.loadForView(r, actor)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, task)
}

// ServeAssignedToMe handles GET /tasks/mine.
func (h *Handler) ServeAssignedToMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	tasks, err := h.Tasks.ListAssignedTo(r.Context(), actor.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, tasks)
}

// ServeGroupTasks handles GET /tasks/group/{groupID}. The result is
// filtered to what the actor may see: admins get everything, caregivers
// get tasks they created or are assigned, carereceivers get their own.
func (h *Handler) ServeGroupTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	ctx := r.Context()
	if _, err := h.Groups.GetByID(ctx, groupID); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	all, err := h.Tasks.ListByGroup(ctx, groupID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	visible := make([]models.Task, 0, len(all))
	for i := range all {
		if taskpolicy.HasTaskPermission(actor, &all[i]) == nil {
			visible = append(visible, all[i])
		}
	}
	apierrors.JSON(w, http.StatusOK, visible)
}
