// Package groups is the care-circle API: creating groups, viewing them,
// and managing membership.
//
// Group creation is open to any signed-in user; the creator becomes the
// group's first admin. Membership changes require a group admin (or a
// platform admin acting on any group).
package groups

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/caretrack/internal/app/features/errors"
	"github.com/dalemusser/caretrack/internal/app/policy/taskpolicy"
	"github.com/dalemusser/caretrack/internal/app/store/audit"
	groupstore "github.com/dalemusser/caretrack/internal/app/store/groups"
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

// Handler holds the group feature's dependencies.
type Handler struct {
	Groups   *groupstore.Store
	Users    *userstore.Store
	Gate     *notify.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(groups *groupstore.Store, users *userstore.Store, gate *notify.Gate, audit *auditlog.Logger, log *zap.Logger) *Handler {
	return &Handler{Groups: groups, Users: users, Gate: gate, AuditLog: audit, Log: log}
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

// pathID parses the named URL parameter as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// canManage allows platform admins on any group and group admins on
// their own.
func canManage(actor authz.Principal, group *models.Group) error {
	if group == nil {
		return apperr.NotFound("group")
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	return taskpolicy.IsGroupAdmin(actor, group)
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /groups.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}

	ctx := r.Context()
	group, err := h.Groups.Create(ctx, req.Name, req.Description, actor.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.GroupCreated(ctx, actor.ID, group.ID, group.Name)

	apierrors.JSON(w, http.StatusCreated, group)
}

// ServeGroup handles GET /groups/{id}. Only members of the group and
// platform admins may view it.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	group, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if !authz.IsAdmin(r) {
		if _, member := group.MemberRole(actor.ID); !member {
			apierrors.Render(w, h.Log, apperr.Forbidden("you are not a member of this group"))
			return
		}
	}
	apierrors.JSON(w, http.StatusOK, group)
}

// ServeMyGroups handles GET /groups/mine.
func (h *Handler) ServeMyGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ids, err := h.Groups.GroupsOf(ctx, actor.ID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	groups, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	apierrors.JSON(w, http.StatusOK, groups)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// HandleAddMember handles POST /groups/{id}/members. The new member is
// notified through the invite channel, subject to their preferences.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid request body"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		apierrors.Render(w, h.Log, apperr.Validation("invalid user_id"))
		return
	}

	ctx := r.Context()
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	if err := canManage(actor, group); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	if err := h.Groups.AddMember(ctx, groupID, userID, req.Role); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.MemberChanged(ctx, audit.EventMemberAdded, actor.ID, groupID, userID, req.Role)

	if userID != actor.ID {
		if _, err := h.Gate.CreateIfAllowed(ctx, userID, primitive.NilObjectID, models.NotifyInvites); err != nil {
			h.Log.Error("invite notification failed",
				zap.String("group_id", groupID.Hex()),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	}

	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "member added"})
}

// HandleRemoveMember handles DELETE /groups/{id}/members/{userID}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	ctx := r.Context()
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}
	// Members may remove themselves without admin rights.
	if userID != actor.ID {
		if err := canManage(actor, group); err != nil {
			apierrors.Render(w, h.Log, err)
			return
		}
	}

	role, _ := group.MemberRole(userID)
	if err := h.Groups.RemoveMember(ctx, groupID, userID); err != nil {
		apierrors.Render(w, h.Log, err)
		return
	}

	h.AuditLog.MemberChanged(ctx, audit.EventMemberRemoved, actor.ID, groupID, userID, role)

	w.WriteHeader(http.StatusNoContent)
}
