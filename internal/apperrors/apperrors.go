// Package apperrors defines the closed error taxonomy returned by the service
// layer. Handlers translate these into HTTP status codes; services never write
// HTTP responses themselves.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure.
type Kind int

const (
	// KindValidation: malformed or out-of-range input. Never retried.
	KindValidation Kind = iota
	// KindUnauthorized: the access policy rejected the principal. No side effects occurred.
	KindUnauthorized
	// KindNotFound: a referenced cliente/prestamo/pago/usuario does not exist.
	KindNotFound
	// KindInvalidState: a transition attempted from a state that disallows it.
	KindInvalidState
	// KindConflict: delete blocked by dependent records, or a uniqueness clash.
	KindConflict
	// KindStore: the data store call itself failed. Propagated, never masked or retried.
	KindStore
)

// Error is the single error type crossing the service boundary.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func InvalidState(msg string) error { return &Error{Kind: KindInvalidState, Msg: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }

// Store wraps a data store failure without leaking its detail to clients.
func Store(msg string, cause error) error {
	return &Error{Kind: KindStore, Msg: msg, Err: cause}
}

// KindOf returns the Kind of err, or (KindStore, false) when err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindStore, false
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// HTTPStatus maps an error to the status code the API surfaces.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show clients. Store failures map to a
// generic retry message so storage internals never leak.
func PublicMessage(err error) string {
	kind, ok := KindOf(err)
	if !ok || kind == KindStore {
		return "Error interno. Intente nuevamente."
	}
	var e *Error
	errors.As(err, &e)
	return e.Msg
}
