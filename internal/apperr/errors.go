// Package apperr provides a small error taxonomy so the UI can tell a
// typo from an expired password from a dead network, and show each one
// to the user in plain Japanese.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind string

const (
	// KindValidation means the user's input was incomplete or malformed.
	KindValidation Kind = "validation"
	// KindNotFound means a file, message or contact does not exist.
	KindNotFound Kind = "not_found"
	// KindAuth means a remote server rejected the stored credentials.
	KindAuth Kind = "auth"
	// KindNotConfigured means a feature needs settings that are missing.
	KindNotConfigured Kind = "not_configured"
	// KindExternal means a remote service or OS facility failed.
	KindExternal Kind = "external"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// Error is a classified error with a message fit for the status bar.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return newError(KindValidation, message, nil)
}

// NotFound creates a not-found error.
func NotFound(message string, cause error) *Error {
	return newError(KindNotFound, message, cause)
}

// Auth creates an authentication error.
func Auth(message string, cause error) *Error {
	return newError(KindAuth, message, cause)
}

// NotConfigured creates an error for a feature whose settings are missing.
func NotConfigured(message string) *Error {
	return newError(KindNotConfigured, message, nil)
}

// External creates an error for a failed remote call or OS facility.
func External(message string, cause error) *Error {
	return newError(KindExternal, message, cause)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// WithContext adds a context field (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// UserMessage returns the message to show the user for err. Unclassified
// errors get a generic apology.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "エラーが発生しました。もう一度お試しください。"
}
