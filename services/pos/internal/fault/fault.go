// Package fault classifies domain errors so transports can map them without
// knowing every sentinel.
package fault

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInvariant Kind = iota
	KindValidation
	KindState
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "invariant"
	}
}

// Error is a classified sentinel. Compare with errors.Is against the
// package-level values, never by message.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

func Validation(msg string) *Error  { return &Error{kind: KindValidation, msg: msg} }
func State(msg string) *Error       { return &Error{kind: KindState, msg: msg} }
func NotFound(msg string) *Error    { return &Error{kind: KindNotFound, msg: msg} }
func Conflict(msg string) *Error    { return &Error{kind: KindConflict, msg: msg} }
func Unavailable(msg string) *Error { return &Error{kind: KindUnavailable, msg: msg} }

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are invariant violations.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindInvariant
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindState, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client. Invariant violations are
// not described.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.msg
	}
	return "internal error"
}
