// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses. Transitions are enforced by the tasks store:
// pending → in-progress → done, with a direct pending → done shortcut.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

// ValidTaskStatus reports whether status is a known task status.
// "skipped" is issued by some clients but is not a state here; callers
// reject it as invalid input.
func ValidTaskStatus(status string) bool {
	return status == TaskStatusPending || status == TaskStatusInProgress || status == TaskStatusDone
}

// Completion methods.
const (
	CompletionManual = "manual"
	CompletionPhoto  = "photo"
	CompletionInput  = "input"
)

// ValidCompletionMethod reports whether method is a known completion method.
func ValidCompletionMethod(method string) bool {
	return method == CompletionManual || method == CompletionPhoto || method == CompletionInput
}

// Task priorities. An empty priority is allowed.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether priority is a known priority or empty.
func ValidPriority(priority string) bool {
	return priority == "" || priority == PriorityLow || priority == PriorityMedium || priority == PriorityHigh
}

// Task is a care task owned by its group.
//
// Escalated is monotonic: the sweeper flips it false→true exactly once and
// nothing ever resets it.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	GroupID     primitive.ObjectID  `bson:"group_id" json:"group_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	AssignedBy  primitive.ObjectID  `bson:"assigned_by" json:"assigned_by"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`

	Status    string     `bson:"status" json:"status"`
	Priority  string     `bson:"priority,omitempty" json:"priority,omitempty"`
	Deadline  *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Escalated bool       `bson:"escalated" json:"escalated"`

	AcceptedAt  *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CompletionMethod string `bson:"completion_method,omitempty" json:"completion_method,omitempty"`
	CompletionNotes  string `bson:"completion_notes,omitempty" json:"completion_notes,omitempty"`
	EvidenceURL      string `bson:"evidence_url,omitempty" json:"evidence_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
