// Package taskpolicy decides who may act on care tasks.
//
// All checks are pure, synchronous predicates over already-fetched models
// plus the actor principal; they never touch storage and never mutate
// state. Callers fetch the group, task, or assignee first and pass them in.
//
// Rather than repeating role branches in every check, decisions come from a
// single capability table (Role × Action → verdict). Role-specific
// exceptions, like a caregiver assigning to themself, are predicate
// overrides attached to table entries.
package taskpolicy

import (
	"github.com/dalemusser/caretrack/internal/app/system/authz"
	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action identifies a guarded operation.
type Action string

const (
	// ActionManageTasks gates task creation and task listing surfaces.
	// Decided from the principal's role alone.
	ActionManageTasks Action = "manage_tasks"
	// ActionAssign gates choosing a task assignee within a group.
	ActionAssign Action = "assign"
	// ActionView gates reading and acting on a specific task
	// (accept, complete, status changes).
	ActionView Action = "view"
	// ActionManage gates update and delete of a specific task.
	ActionManage Action = "manage"
)

// Context carries the already-fetched resources a predicate may need.
// Only the fields relevant to the action have to be set.
type Context struct {
	Actor    authz.Principal
	Group    *models.Group // assign
	Assignee *models.User  // assign; nil means the assignee does not exist
	Task     *models.Task  // view, manage
}

type verdict int

const (
	deny verdict = iota
	allow
	predicated // consult the rule's predicate
)

type rule struct {
	v      verdict
	reason string // denial reason when v == deny
	pred   func(Context) error
}

// capabilities is the single source of truth for Role × Action decisions.
var capabilities = map[string]map[Action]rule{
	models.RoleAdmin: {
		ActionManageTasks: {v: allow},
		ActionAssign:      {v: allow},
		ActionView:        {v: allow},
		ActionManage:      {v: allow},
	},
	models.RoleCaregiver: {
		ActionManageTasks: {v: allow},
		ActionAssign:      {v: predicated, pred: caregiverAssign},
		ActionView:        {v: predicated, pred: caregiverView},
		ActionManage:      {v: predicated, pred: caregiverManage},
	},
	models.RoleCarereceiver: {
		ActionManageTasks: {v: deny, reason: "carereceivers cannot manage tasks"},
		ActionAssign:      {v: deny, reason: "carereceivers cannot assign tasks"},
		ActionView:        {v: predicated, pred: carereceiverView},
		ActionManage:      {v: deny, reason: "carereceivers cannot modify tasks"},
	},
}

// Evaluate runs the capability table for the actor's role and action.
// It returns nil to permit or an Authorization apperr to deny.
func Evaluate(action Action, rc Context) error {
	byAction, ok := capabilities[rc.Actor.Role]
	if !ok {
		return apperr.Forbidden("unknown role")
	}
	r, ok := byAction[action]
	if !ok {
		return apperr.Forbidden("action not permitted for role")
	}
	switch r.v {
	case allow:
		// Even unrestricted roles cannot assign to a user that does
		// not exist.
		if action == ActionAssign && rc.Assignee == nil {
			return apperr.Forbidden("assignee does not exist")
		}
		return nil
	case deny:
		return apperr.Forbidden(r.reason)
	default:
		return r.pred(rc)
	}
}

// caregiverAssign permits assignment to the caregiver themself or to a user
// whose role within the group is carereceiver.
func caregiverAssign(rc Context) error {
	if rc.Assignee == nil {
		return apperr.Forbidden("assignee does not exist")
	}
	if rc.Assignee.ID == rc.Actor.ID {
		return nil
	}
	if rc.Group != nil {
		if role, ok := rc.Group.MemberRole(rc.Assignee.ID); ok && role == models.RoleCarereceiver {
			return nil
		}
	}
	return apperr.Forbidden("caregivers may only assign tasks to carereceivers or themselves")
}

// caregiverView permits a caregiver who created the task or is assigned it.
func caregiverView(rc Context) error {
	t := rc.Task
	if t == nil {
		return apperr.Forbidden("no task in scope")
	}
	if t.AssignedBy == rc.Actor.ID {
		return nil
	}
	if t.AssignedTo != nil && *t.AssignedTo == rc.Actor.ID {
		return nil
	}
	return apperr.Forbidden("caregivers may only access tasks they created or are assigned")
}

// caregiverManage permits update/delete only to the caregiver who created
// the task.
func caregiverManage(rc Context) error {
	if rc.Task == nil {
		return apperr.Forbidden("no task in scope")
	}
	if rc.Task.AssignedBy == rc.Actor.ID {
		return nil
	}
	return apperr.Forbidden("caregivers may only modify tasks they created")
}

// carereceiverView permits a carereceiver assigned to the task.
func carereceiverView(rc Context) error {
	t := rc.Task
	if t == nil {
		return apperr.Forbidden("no task in scope")
	}
	if t.AssignedTo != nil && *t.AssignedTo == rc.Actor.ID {
		return nil
	}
	return apperr.Forbidden("carereceivers may only access tasks assigned to them")
}

// CanManageTasks permits admins and caregivers to create tasks. The role
// comes from the authenticated principal, not a per-group lookup.
func CanManageTasks(actor authz.Principal) error {
	return Evaluate(ActionManageTasks, Context{Actor: actor})
}

// CanAssignTask permits the actor to assign a task to assignee within group.
// assignee must be nil if the user could not be found.
func CanAssignTask(actor authz.Principal, group *models.Group, assignee *models.User) error {
	return Evaluate(ActionAssign, Context{Actor: actor, Group: group, Assignee: assignee})
}

// HasTaskPermission permits the actor to read or act on the task
// (accept, complete, status change).
func HasTaskPermission(actor authz.Principal, task *models.Task) error {
	return Evaluate(ActionView, Context{Actor: actor, Task: task})
}

// CanManageSpecificTask permits the actor to update or delete the task.
func CanManageSpecificTask(actor authz.Principal, task *models.Task) error {
	return Evaluate(ActionManage, Context{Actor: actor, Task: task})
}

// IsGroupAdmin permits only actors whose role within the group is admin.
func IsGroupAdmin(actor authz.Principal, group *models.Group) error {
	if group == nil {
		return apperr.NotFound("group")
	}
	if role, ok := group.MemberRole(actor.ID); ok && role == models.RoleAdmin {
		return nil
	}
	return apperr.Forbidden("group admin role required")
}

// IsOwnerOrAdmin permits admins and the owner of the resource.
func IsOwnerOrAdmin(actor authz.Principal, resourceOwnerID primitive.ObjectID) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.ID == resourceOwnerID {
		return nil
	}
	return apperr.Forbidden("only the owner or an admin may do this")
}
