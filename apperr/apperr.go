// Package apperr defines the error taxonomy shared by the data layer.
//
// Adapters and repositories never let a raw backend error escape: every
// failure is translated into one of the kinds below before it reaches a
// caller. Each kind carries a short user-facing message; diagnostic detail
// (backend code, details, hint) is preserved for logging only.
package apperr

import (
	"errors"
	"strings"
)

// ErrNoTenant is returned when a tenant-scoped operation runs without a
// resolvable tenant. It fails fast, before any backend call is issued.
var ErrNoTenant = errors.New("no tenant context found")

// ValidationError carries one or more human-readable rule violations from a
// repository before-hook. Callers are expected to surface every message, not
// just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Validation builds a ValidationError from the given messages.
func Validation(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ReferentialGuardError is raised by a delete guard that found dependent rows
// and refused the soft delete.
type ReferentialGuardError struct {
	Table   string
	Message string
}

func (e *ReferentialGuardError) Error() string { return e.Message }

// Guard builds a ReferentialGuardError for the given owning table.
func Guard(table, message string) *ReferentialGuardError {
	return &ReferentialGuardError{Table: table, Message: message}
}

// BackendError is a failure reported by the hosted backend. Code, Details and
// Hint are kept verbatim for logging; UserMessage is what callers show.
type BackendError struct {
	Code        string
	Message     string
	Details     string
	Hint        string
	UserMessage string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.UserMessage
}

// NetworkError wraps a transport-level failure or client timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return "network error during " + e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// backendMessages maps backend error codes to user-facing text.
var backendMessages = map[string]string{
	"23505":    "This record already exists.",
	"23503":    "This operation cannot be completed because the record is being used elsewhere.",
	"23502":    "Required information is missing.",
	"42P01":    "System configuration error.",
	"42501":    "You don't have permission to perform this action.",
	"42703":    "Database schema error. Please contact support.",
	"PGRST116": "Multiple records found where only one was expected.",
	"PGRST301": "Your session has expired. Please sign in again.",
	"PGRST302": "You don't have permission to perform this action.",
}

const defaultBackendMessage = "An unexpected database error occurred."

// Backend translates a backend failure into a BackendError, resolving the
// user-facing message from the fixed code lookup table.
func Backend(code, message, details, hint string) *BackendError {
	userMessage, ok := backendMessages[code]
	if !ok {
		userMessage = defaultBackendMessage
	}
	return &BackendError{
		Code:        code,
		Message:     message,
		Details:     details,
		Hint:        hint,
		UserMessage: userMessage,
	}
}

// UserMessage extracts the short, non-technical message to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}

	var guard *ReferentialGuardError
	if errors.As(err, &guard) {
		return guard.Message
	}

	var backend *BackendError
	if errors.As(err, &backend) {
		return backend.UserMessage
	}

	var network *NetworkError
	if errors.As(err, &network) {
		return "A network problem occurred. Please try again."
	}

	if errors.Is(err, ErrNoTenant) {
		return "No church is selected. Please sign in again."
	}

	return err.Error()
}
