// Package escalation re-routes overdue tasks to backup users.
//
// A sweep selects tasks whose deadline has passed, still undone and not
// yet escalated, flags each one, and notifies a backup set derived from
// the assignee's role in the group. Each candidate is its own failure
// domain: one bad task is logged and skipped, the rest of the batch keeps
// going. The caller (the worker loop) is responsible for not running two
// sweeps at once.
package escalation

import (
	"context"
	"time"

	taskstore "github.com/dalemusser/caretrack/internal/app/store/tasks"
	"github.com/dalemusser/caretrack/internal/app/system/auditlog"
	"github.com/dalemusser/caretrack/internal/app/system/notify"
	"github.com/dalemusser/caretrack/internal/app/system/roles"
	"github.com/dalemusser/caretrack/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sweeper escalates overdue tasks.
type Sweeper struct {
	tasks *taskstore.Store
	roles *roles.Resolver
	gate  *notify.Gate
	audit *auditlog.Logger
	log   *zap.Logger
}

func New(tasks *taskstore.Store, resolver *roles.Resolver, gate *notify.Gate, audit *auditlog.Logger, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{tasks: tasks, roles: resolver, gate: gate, audit: audit, log: log}
}

// Result summarizes one sweep.
type Result struct {
	SweepID    string
	Candidates int
	Escalated  int
	Skipped    int
	Failed     int
}

// Sweep runs one escalation pass over every overdue task.
//
// A failing candidate query produces no side effects for the run. A
// failing candidate is counted and logged but never aborts the rest of
// the batch. Escalation is idempotent: the escalated flag is flipped
// false to true exactly once and the selection filter excludes tasks
// already flagged, so re-running over an unchanged set does nothing.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	res := Result{SweepID: uuid.NewString()}
	log := s.log.With(zap.String("sweep_id", res.SweepID))

	candidates, err := s.tasks.FindOverdue(ctx, now)
	if err != nil {
		log.Error("escalation sweep: candidate query failed", zap.Error(err))
		return res, err
	}
	res.Candidates = len(candidates)

	for i := range candidates {
		task := &candidates[i]
		switch err := s.escalate(ctx, log, task); {
		case err == nil:
			res.Escalated++
		case err == errSkipped:
			res.Skipped++
		default:
			res.Failed++
			log.Error("escalation sweep: candidate failed",
				zap.String("task_id", task.ID.Hex()),
				zap.Error(err))
		}
	}

	if res.Candidates > 0 {
		log.Info("escalation sweep finished",
			zap.Int("candidates", res.Candidates),
			zap.Int("escalated", res.Escalated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// errSkipped marks a candidate that was passed over without being flagged.
var errSkipped = skipError{}

type skipError struct{}

func (skipError) Error() string { return "candidate skipped" }

// escalate processes one overdue task.
func (s *Sweeper) escalate(ctx context.Context, log *zap.Logger, task *models.Task) error {
	// A task without an assignee or group has no escalation target, and
	// is left unflagged so it becomes a candidate again once assigned.
	if task.AssignedTo == nil || task.GroupID.IsZero() {
		return errSkipped
	}
	assignee := *task.AssignedTo

	// Flag first so the task escalates at most once even if the steps
	// after it fail. A concurrent flip by another sweep is a skip.
	flipped, err := s.tasks.MarkEscalated(ctx, task.ID)
	if err != nil {
		return err
	}
	if !flipped {
		return errSkipped
	}

	role, err := s.roles.RoleOf(ctx, assignee, task.GroupID)
	if err != nil {
		return err
	}
	if role == "" {
		log.Warn("escalated task has an assignee with no role in the group",
			zap.String("task_id", task.ID.Hex()),
			zap.String("assignee", assignee.Hex()))
		return nil
	}

	backups, err := s.backupsFor(ctx, task.GroupID, assignee, role)
	if err != nil {
		return err
	}

	s.audit.TaskEscalated(ctx, task.ID, task.GroupID, assignee, len(backups))

	// One gated attempt per backup; a muted backup simply gets nothing.
	for userID := range backups {
		if _, err := s.gate.CreateIfAllowed(ctx, userID, task.ID, models.NotifyNewActivity); err != nil {
			log.Error("escalation notification failed",
				zap.String("task_id", task.ID.Hex()),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	}
	return nil
}

// backupsFor computes who should hear about an escalated task, based on
// the assignee's role within the group:
//
//	caregiver    -> the group's admins
//	carereceiver -> the group's caregivers and admins, minus the assignee
//	admin        -> nobody
func (s *Sweeper) backupsFor(ctx context.Context, groupID, assignee primitive.ObjectID, role string) (roles.Set, error) {
	switch role {
	case models.RoleCaregiver:
		return s.roles.UsersWithRole(ctx, groupID, models.RoleAdmin)
	case models.RoleCarereceiver:
		set, err := s.roles.UsersWithAnyRole(ctx, groupID, models.RoleCaregiver, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		return set.Remove(assignee), nil
	case models.RoleAdmin:
		return roles.Set{}, nil
	default:
		s.log.Warn("unknown assignee role during escalation",
			zap.String("group_id", groupID.Hex()),
			zap.String("role", role))
		return roles.Set{}, nil
	}
}
