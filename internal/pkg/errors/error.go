package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrConflict          = errors.New("conflict: resource already exists")
	ErrInternal          = errors.New("internal server error")
)

// Kind classifies an error for callers that need to branch on it
// (HTTP status mapping, bulk error reporting).
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error is a classified application error with a short human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and friends match classified errors.
func (e *Error) Is(target error) bool {
	return sentinelFor(e.Kind) == target
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or infrastructure failure. The message is safe to
// show to callers; err carries the detail for logs.
func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the classification of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// PublicMessage returns the caller-facing reason for err. Internal errors
// never leak their wrapped detail.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if KindOf(err) == KindInternal {
		return ErrInternal.Error()
	}
	return err.Error()
}

func sentinelFor(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidTransition:
		return ErrInvalidTransition
	case KindValidation:
		return ErrInvalidInput
	case KindConflict:
		return ErrConflict
	case KindInternal:
		return ErrInternal
	}
	return nil
}
