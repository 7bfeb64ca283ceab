package society

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized" // Bad or missing admin credential
	KindValidation   Kind = "validation"   // Missing or malformed input
	KindNotFound     Kind = "not_found"    // Referenced event doesn't exist
	KindConflict     Kind = "conflict"     // Event is already finalized
	KindStoreFailure Kind = "store"        // Reading from or committing to the store failed
)

// Error is the error type returned by the engine and the service.
type Error struct {
	Kind    Kind
	Message string // Safe to show to the admin
	Err     error  // Underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindStoreFailure for errors that aren't *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// Unauthorized is returned when a write arrives without the admin credential.
func Unauthorized() error {
	return &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
}

func validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func storeFailure(message string, err error) error {
	return &Error{Kind: KindStoreFailure, Message: message, Err: err}
}
