package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so transports can map them.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindClassification
	KindConflict
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindClassification:
		return "classification"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is the typed failure returned by every service operation.
// Reason is safe to show to the caller; Err is kept for logs only.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Reason: "invalid input"}
	ErrNotFound       = &Error{Kind: KindNotFound, Reason: "not found"}
	ErrForbidden      = &Error{Kind: KindForbidden, Reason: "forbidden"}
	ErrClassification = &Error{Kind: KindClassification, Reason: "sentiment classification failed"}
	ErrConflict       = &Error{Kind: KindConflict, Reason: "conflict"}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized, Reason: "unauthorized"}
)

func validationError(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func notFoundError(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func forbiddenError(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func conflictError(reason string, err error) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Err: err}
}

func unauthorizedError(reason string) *Error {
	return &Error{Kind: KindUnauthorized, Reason: reason}
}

// ClassificationError wraps a classifier failure.
func ClassificationError(err error) *Error {
	return &Error{Kind: KindClassification, Reason: "sentiment classification failed", Err: err}
}

// KindOf returns the kind of a service error, or 0 for anything else.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}
