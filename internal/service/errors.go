// Package service holds the catalog's business rules: the auth gate, category
// and product management, and image reference handling.
package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidType        = errors.New("invalid file type")
	ErrTooLarge           = errors.New("file too large")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStore              = errors.New("store error")
)

// Error pairs a kind with a message safe to show to clients
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func validation(message string) *Error {
	return newError(ErrValidation, message, nil)
}

func storeFailure(message string, cause error) *Error {
	return newError(ErrStore, message, cause)
}

// Message returns the client-facing text for err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	}
	return "Internal server error"
}
