// internal/app/features/tasks/lifecycle.go
package tasks

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.uber.org/zap"
)

// HandleAccept handles POST /tasks/{id}/accept. Only a pending task can
// be accepted; anything else is a conflict.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	task, err := h.loadForView(r, actor)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	ctx := r.Context()
	accepted, err := h.Tasks.Accept(ctx, task.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskAccepted, actor.ID, accepted.ID, accepted.GroupID, nil)
	apierrors.JSON(w, http.StatusOK, accepted)
}

type completeRequest struct {
	Method      string `json:"method"`
	Notes       string `json:"notes"`
	EvidenceURL string `json:"evidence_url"`
}

// HandleComplete handles POST /tasks/{id}/complete. Completion is legal
// from pending or in-progress; completing a done task is a conflict.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	task, err := h.loadForView(r, actor)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}

	ctx := r.Context()
	done, err := h.Tasks.Complete(ctx, task.ID, req.Method, req.Notes, req.EvidenceURL)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskCompleted, actor.ID, done.ID, done.GroupID,
		map[string]string{"method": done.CompletionMethod})

	// Tell the task's creator, unless they completed it themselves.
	if done.AssignedBy != actor.ID {
		if _, err := h.Gate.CreateIfAllowed(ctx, done.AssignedBy, done.ID, models.NotifyNewActivity); err != nil {
			h.Log.Error("completion notification failed",
				zap.String("task_id", done.ID.Hex()),
				zap.Error(err))
		}
	}

	apierrors.JSON(w, http.StatusOK, done)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /tasks/{id}/status. The target status must
// be a known state; clients that still send "skipped" get a validation
// error, not a silent coercion.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	task, err := h.loadForView(r, actor)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}

	ctx := r.Context()
	updated, err := h.Tasks.SetStatus(ctx, task.ID, req.Status)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.TaskEvent(ctx, audit.EventTaskStatusChanged, actor.ID, updated.ID, updated.GroupID,
		map[string]string{"from": task.Status, "to": updated.Status})
	apierrors.JSON(w, http.StatusOK, updated)
}
