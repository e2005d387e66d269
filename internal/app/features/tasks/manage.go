// internal/app/features/tasks/manage.go
package tasks

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/policy/taskpolicy"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type updateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	AssignedTo  *string    `json:"assigned_to"`
}

// HandleUpdate handles PATCH /tasks/{id}. Only the task's creator or an
// admin may edit it; reassignment additionally passes the assignment
// policy.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	ctx := r.Context()
	task, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if err := taskpolicy.CanManageSpecificTask(actor, task); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}

	upd := taskstore.Update{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	}

	if req.AssignedTo != nil {
		assigneeID, err := primitive.ObjectIDFromHex(*req.AssignedTo)
		if err != nil {
			apierrors.Render(w, h.Log, apperr.Validation("invalid assigned_to"))
			return
		}
		group, err := h.Groups.GetByID(ctx, task.GroupID)
		if err != nil {
			apierrors.Render(w, h.Log, err)
			return
		}
		assignee, err := h.Users.GetByID(ctx, assigneeID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			apierrors.Render(w, h.Log, err)
			return
		}
		if err := taskpolicy.CanAssignTask(actor, group, assignee); err != nil {
			apierrors.Render(w, h.Log, err)
			return
		}
		upd.AssignedTo = &assigneeID
	}

	updated, err := h.Tasks.Update(ctx, id, upd)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskUpdated, actor.ID, updated.ID, updated.GroupID, nil)

	// A newly assigned user hears about it.
	reassigned := upd.AssignedTo != nil &&
		(task.AssignedTo == nil || *task.AssignedTo != *upd.AssignedTo)
	if reassigned && *upd.AssignedTo != actor.ID {
		if _, err := h.Gate.CreateIfAllowed(ctx, *upd.AssignedTo, updated.ID, models.NotifyNewActivity); err != nil {
			h.Log.Error("reassignment notification failed",
				zap.String("task_id", updated.ID.Hex()),
				zap.Error(err))
		}
	}

	apierrors.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /tasks/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	ctx := r.Context()
	task, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if err := taskpolicy.CanManageSpecificTask(actor, task); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if err := h.Tasks.Delete(ctx, id); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskDeleted, actor.ID, task.ID, task.GroupID,
		map[string]string{"title": task.Title})
	w.WriteHeader(http.StatusNoContent)
}
