// internal/app/system/auditlog/logger.go

// Package auditlog provides convenience methods for recording audit events
// to both MongoDB (via the audit store) and structured logs (via zap).
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/caretrack/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Activity controls logging for task, group, and escalation events.
	// Same values as Auth.
	Activity string
}

// Logger provides convenience methods for logging audit events.
// A nil *Logger is safe to call; every method is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.TaskID != nil {
		fields = append(fields, zap.String("task_id", event.TaskID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	default:
		setting = l.config.Activity
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to persist audit event",
				zap.String("event_type", event.EventType),
				zap.Error(err))
		}
	}
}

// LoginSuccess records a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"method": method},
	})
}

// LoginFailed records a failed login attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		IP:            getClientIP(r),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// Logout records a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		IP:        getClientIP(r),
		Success:   true,
	})
}

// TaskEvent records a task lifecycle event performed by actorID.
func (l *Logger) TaskEvent(ctx context.Context, eventType string, actorID, taskID, groupID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTask,
		EventType: eventType,
		ActorID:   &actorID,
		TaskID:    &taskID,
		GroupID:   &groupID,
		Success:   true,
		Details:   details,
	})
}

// GroupCreated records a group creation.
func (l *Logger) GroupCreated(ctx context.Context, actorID, groupID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventGroupCreated,
		ActorID:   &actorID,
		GroupID:   &groupID,
		Success:   true,
		Details:   map[string]string{"name": name},
	})
}

// MemberChanged records a member add or remove.
func (l *Logger) MemberChanged(ctx context.Context, eventType string, actorID, groupID, userID primitive.ObjectID, role string) {
	details := map[string]string{}
	if role != "" {
		details["role"] = role
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: eventType,
		ActorID:   &actorID,
		GroupID:   &groupID,
		UserID:    &userID,
		Success:   true,
		Details:   details,
	})
}

// TaskEscalated records an escalation sweep flagging a task.
func (l *Logger) TaskEscalated(ctx context.Context, taskID, groupID primitive.ObjectID, assignee primitive.ObjectID, backups int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryEscalation,
		EventType: audit.EventTaskEscalated,
		TaskID:    &taskID,
		GroupID:   &groupID,
		UserID:    &assignee,
		Success:   true,
		Details:   map[string]string{"backup_count": strconv.Itoa(backups)},
	})
}
