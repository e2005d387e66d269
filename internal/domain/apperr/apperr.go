// internal/domain/apperr/apperr.go

// Package apperr defines the error taxonomy shared by stores, policies, and
// HTTP handlers. Stores return these instead of raw driver errors so that
// handlers can map them to status codes without leaking internals.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for status-code mapping.
type Kind int

const (
	// KindValidation covers missing or invalid input fields.
	KindValidation Kind = iota
	// KindNotFound covers absent tasks, groups, users, and members.
	KindNotFound
	// KindAuthorization covers guard denials.
	KindAuthorization
	// KindConflict covers illegal state transitions.
	KindConflict
	// KindStorage covers underlying store failures. The wrapped driver
	// error is kept for logging but must never be shown to clients.
	KindStorage
)

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Forbidden returns an authorization denial with the given reason.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindAuthorization, Message: reason}
}

// Conflict returns a conflict error with a formatted message.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying store failure. The message is a short
// operation description for logs; clients see a generic message.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
// Anything else is treated as a storage failure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
