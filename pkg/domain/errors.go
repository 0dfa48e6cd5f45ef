package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on failure class without
// matching message text. Conflict and invalid-transition errors are rejected
// synchronously before any local state changes; every other kind surfaces
// after an optimistic apply and therefore always follows a rollback.
type Kind string

// Error kinds reported by backend stores and the mutation session.
const (
	// KindNetwork signals a connectivity or fetch failure.
	KindNetwork Kind = "network"
	// KindServer signals an internal backend failure.
	KindServer Kind = "server"
	// KindTimeout signals the backend call did not resolve in time.
	KindTimeout Kind = "timeout"
	// KindAuthExpired signals the caller's session is no longer valid.
	KindAuthExpired Kind = "auth_expired"
	// KindPermission signals the caller may not perform the operation.
	KindPermission Kind = "permission"
	// KindNotFound signals the record does not exist.
	KindNotFound Kind = "not_found"
	// KindValidation signals the payload was rejected; the message is safe
	// to show verbatim.
	KindValidation Kind = "validation"
	// KindConflict signals a mutation is already in flight for the record.
	KindConflict Kind = "conflict"
	// KindInvalidTransition signals an illegal status change was requested.
	KindInvalidTransition Kind = "invalid_transition"
)

// Error is a classified failure. Op names the operation that failed
// ("owner.update_status", "document.remove"), Message is human-readable, and
// Err optionally wraps an underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Message
	}
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a classified error.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError classifies an underlying error, preserving it as the cause.
func WrapError(kind Kind, op string, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

// KindOf returns the classification of err. Unclassified errors count as
// server failures: the collaborator contract requires classification, so an
// unstructured error is itself a backend defect.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fixed user-facing sentences per kind. Internal details never leak to the
// UI; only validation messages pass through verbatim.
var userMessages = map[Kind]string{
	KindNetwork:           "We couldn't reach the server. Check your connection and try again.",
	KindServer:            "Something went wrong on our side. Please try again.",
	KindTimeout:           "The request timed out. Please try again.",
	KindAuthExpired:       "Your session has expired. Please sign in again.",
	KindPermission:        "You don't have permission to make this change.",
	KindNotFound:          "That record could not be found. It may already have been removed.",
	KindConflict:          "Another change to this record is still in progress.",
	KindInvalidTransition: "That action isn't available for this record.",
}

// UserMessage maps err to a sentence safe to show in the UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation && e.Message != "" {
		return e.Message
	}
	if msg, ok := userMessages[KindOf(err)]; ok {
		return msg
	}
	return userMessages[KindServer]
}
