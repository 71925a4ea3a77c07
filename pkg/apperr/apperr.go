package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the stable status classes callers can
// branch on. NotFound/Forbidden/InvalidState mean "retry won't help";
// InsufficientResource/InvalidAmount mean "adjust input and retry".
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindInsufficientResource
	KindInvalidAmount
	KindForbidden
	KindValidation
)

// Error carries a kind plus a human-readable message. It wraps an optional
// cause so errors.Is/As keep working through the classification layer.
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

// Is lets errors.Is match two apperr errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

func InsufficientResource(format string, args ...interface{}) *Error {
	return newf(KindInsufficientResource, format, args...)
}

func InvalidAmount(format string, args ...interface{}) *Error {
	return newf(KindInvalidAmount, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the HTTP status its kind belongs to.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindInsufficientResource:
		return http.StatusUnprocessableEntity
	case KindInvalidAmount:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
