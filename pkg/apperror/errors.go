package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error by the failure class the client sees
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "UNAUTHENTICATED"
	KindAuthorization  Kind = "FORBIDDEN"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindUpstream       Kind = "UPSTREAM"
)

// Error is the application error carried from services to handlers
type Error struct {
	Kind    Kind
	Message string
	Details string
	Origin  error // Original error that caused this error, if any

	base *Error
}

func (e *Error) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Origin
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause
func Wrap(kind Kind, message string, origin error) *Error {
	return &Error{Kind: kind, Message: message, Origin: origin}
}

// WithDetails returns a copy of e carrying extra detail for the client.
// The copy still matches e with errors.Is.
func (e *Error) WithDetails(details string) *Error {
	base := e
	if e.base != nil {
		base = e.base
	}
	return &Error{Kind: e.Kind, Message: e.Message, Details: details, Origin: e.Origin, base: base}
}

// Is reports whether target is the same sentinel or a copy derived from it
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.base != nil && e.base == t)
}

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Forbidden(message string) *Error  { return New(KindAuthorization, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }

// Unauthenticated is returned when no valid session is attached
func Unauthenticated() *Error { return New(KindAuthentication, "Unauthorized") }

// Upstream wraps a backend or third-party failure
func Upstream(message string, origin error) *Error {
	return Wrap(KindUpstream, message, origin)
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors that are not application errors are treated as upstream failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// HTTPStatus converts a kind to an HTTP status code.
// Conflicts are reported as 400 with a human-readable explanation.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
